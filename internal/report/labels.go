// Package report renders products and drafts for people: the confirmation
// preview, the print view, search listings and the xlsx export.
package report

// Labels are the captions used by the text views. The zero value is not
// useful; start from DefaultLabels.
type Labels struct {
	Draft       string // "Product %d"
	Name        string
	Category    string
	Firma       string
	Code        string
	Quantity    string
	Cost        string
	Sale        string
	Currency    string
	Totals      string // "Totals (%s)"
	Revenue     string
	Profit      string
	ProductList string
	Found       string // "Found %d products:"
	QtyUnit     string
	Truncated   string
}

var DefaultLabels = Labels{
	Draft:       "Product %d",
	Name:        "Name",
	Category:    "Category",
	Firma:       "Firma",
	Code:        "Code",
	Quantity:    "Qty",
	Cost:        "Cost",
	Sale:        "Sale",
	Currency:    "Currency",
	Totals:      "Totals (%s)",
	Revenue:     "Revenue",
	Profit:      "Profit",
	ProductList: "Product list",
	Found:       "Found %d products:",
	QtyUnit:     "qty",
	Truncated:   "... (truncated)",
}

const (
	missing = "?"
	noCode  = "-"
)
