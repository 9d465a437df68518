package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/money"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Products"

var columns = []struct {
	header string
	width  float64
}{
	{"#", 5},
	{"Date", 12},
	{"Name", 24},
	{"Category", 15},
	{"Firma", 15},
	{"Code", 10},
	{"Quantity", 10},
	{"Currency", 9},
	{"Cost Price", 12},
	{"Sale Price", 12},
	{"Total Cost", 15},
	{"Total Sale", 15},
	{"Profit", 15},
}

// column indexes of the total columns, 1-based
const (
	colName      = 3
	colTotalCost = 11
	colTotalSale = 12
	colProfit    = 13
)

// ExportXLSX writes the owner's products to dir and returns the file path.
// Zero or missing quantities and prices are left blank; every currency
// present gets its own trailing TOTALS row.
func ExportXLSX(products []model.Product, dir string, ownerID int64, now time.Time) (string, error) {
	f, err := BuildWorkbook(products)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("product_report_%d_%s.xlsx", ownerID, now.Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return path, nil
}

func BuildWorkbook(products []model.Product) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.header
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, c.width); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}

	for i, p := range products {
		row := productRow(i+1, p)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	// one blank separator row, then the totals
	rowNo := len(products) + 3
	agg := money.Aggregate(products)
	for _, cur := range agg.Currencies() {
		t := agg[cur]
		values := map[int]any{
			colName:      fmt.Sprintf("TOTALS (%s)", cur),
			colTotalCost: t.Cost.InexactFloat64(),
			colTotalSale: t.Revenue.InexactFloat64(),
			colProfit:    t.Profit.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col, rowNo)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
		if err := f.SetRowStyle(sheetName, rowNo, rowNo, bold); err != nil {
			f.Close()
			return nil, err
		}
		rowNo++
	}

	return f, nil
}

func productRow(index int, p model.Product) []any {
	line := money.LineTotals(p)
	hasQty := p.Quantity != 0

	var totalCost, totalSale, profit any
	if hasQty && known(p.CostPrice) {
		totalCost = line.Cost.InexactFloat64()
	}
	if hasQty && known(p.SalePrice) {
		totalSale = line.Revenue.InexactFloat64()
	}
	if hasQty && (known(p.CostPrice) || known(p.SalePrice)) {
		profit = line.Profit.InexactFloat64()
	}

	var date any
	if !p.CreatedAt.IsZero() {
		date = p.CreatedAt.Format("2006-01-02")
	}

	var qty any
	if hasQty {
		qty = p.Quantity
	}

	return []any{
		index,
		date,
		p.Name,
		deref(p.Category),
		deref(p.Firma),
		deref(p.Code),
		qty,
		string(p.Currency.OrDefault()),
		blankZero(p.CostPrice),
		blankZero(p.SalePrice),
		totalCost,
		totalSale,
		profit,
	}
}

func known(v *float64) bool {
	return v != nil && *v != 0
}

func blankZero(v *float64) any {
	if !known(v) {
		return nil
	}
	return *v
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
