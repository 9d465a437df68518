package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/money"
)

// MaxMessageLen keeps text views under the chat message limit.
const MaxMessageLen = 4000

// Preview enumerates every draft of a batch. Each field is always printed,
// with "?" standing in for values the extractor did not capture. The
// totals are what the batch would add once saved.
func Preview(batch model.DraftBatch, l Labels) string {
	var b strings.Builder
	products := make([]model.Product, 0, len(batch))

	for i, d := range batch {
		fmt.Fprintf(&b, "*"+l.Draft+"*\n", i+1)
		fmt.Fprintf(&b, "%s: %s\n", l.Name, textOr(d.Name, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Category, textOr(d.Category, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Firma, textOr(d.Firma, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Code, textOr(d.Code, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Quantity, intOr(d.Quantity, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Cost, floatOr(d.CostPrice, missing))
		fmt.Fprintf(&b, "%s: %s\n", l.Sale, floatOr(d.SalePrice, missing))
		fmt.Fprintf(&b, "%s: %s\n\n", l.Currency, currencyOr(d.Currency, missing))

		products = append(products, *model.NewProductFromDraft(0, d))
	}

	writeTotals(&b, money.Aggregate(products), l)
	return strings.TrimRight(b.String(), "\n")
}

// PrintView lists products one per line followed by per-currency totals.
func PrintView(products []model.Product, l Labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n\n", l.ProductList)
	for _, p := range products {
		fmt.Fprintf(&b, "%s — %s — %d %s — %s %s\n",
			textOr(p.Code, noCode), p.Name, p.Quantity, l.QtyUnit,
			floatOr(p.SalePrice, noCode), p.Currency.OrDefault())
	}
	b.WriteString("\n")
	writeTotals(&b, money.Aggregate(products), l)
	return truncate(strings.TrimRight(b.String(), "\n"), l)
}

func SearchListing(products []model.Product, l Labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, l.Found+"\n\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&b, "%s (%s) - %d %s - %s %s\n",
			p.Name, textOr(p.Code, noCode), p.Quantity, l.QtyUnit,
			floatOr(p.SalePrice, noCode), p.Currency.OrDefault())
	}
	return truncate(strings.TrimRight(b.String(), "\n"), l)
}

func writeTotals(b *strings.Builder, agg money.Aggregation, l Labels) {
	for _, cur := range agg.Currencies() {
		t := agg[cur]
		fmt.Fprintf(b, "*"+l.Totals+"*\n", cur)
		fmt.Fprintf(b, "%s: %s | %s: %s | %s: %s\n",
			l.Cost, t.Cost.String(), l.Revenue, t.Revenue.String(), l.Profit, t.Profit.String())
	}
}

func truncate(s string, l Labels) string {
	if len(s) <= MaxMessageLen {
		return s
	}
	cut := MaxMessageLen - len(l.Truncated)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + l.Truncated
}

func textOr(s *string, placeholder string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

func intOr(v *int64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return strconv.FormatInt(*v, 10)
}

func floatOr(v *float64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func currencyOr(c *model.Currency, placeholder string) string {
	if c == nil || *c == "" {
		return placeholder
	}
	return string(*c)
}
