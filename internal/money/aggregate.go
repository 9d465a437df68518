// Package money computes per-currency cost, revenue and profit totals.
//
// Sums are kept as exact decimals so an aggregation over a whole record set
// equals the merge of aggregations over any partition of it.
package money

import (
	"sort"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/shopspring/decimal"
)

type Totals struct {
	Cost    decimal.Decimal `json:"cost"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		Cost:    t.Cost.Add(o.Cost),
		Revenue: t.Revenue.Add(o.Revenue),
		Profit:  t.Profit.Add(o.Profit),
	}
}

func (t Totals) Equal(o Totals) bool {
	return t.Cost.Equal(o.Cost) && t.Revenue.Equal(o.Revenue) && t.Profit.Equal(o.Profit)
}

// Aggregation maps every currency present in the input to its totals.
// Currencies without records never appear.
type Aggregation map[model.Currency]Totals

// LineTotals returns quantity×cost, quantity×sale and their difference for a
// single record. Missing prices count as zero.
func LineTotals(p model.Product) Totals {
	qty := decimal.NewFromInt(p.Quantity)
	cost := qty.Mul(price(p.CostPrice))
	revenue := qty.Mul(price(p.SalePrice))
	return Totals{Cost: cost, Revenue: revenue, Profit: revenue.Sub(cost)}
}

func Aggregate(products []model.Product) Aggregation {
	out := make(Aggregation)
	for _, p := range products {
		cur := p.Currency.OrDefault()
		out[cur] = out[cur].Add(LineTotals(p))
	}
	return out
}

// Merge combines partial aggregations into one.
func Merge(parts ...Aggregation) Aggregation {
	out := make(Aggregation)
	for _, part := range parts {
		for cur, t := range part {
			out[cur] = out[cur].Add(t)
		}
	}
	return out
}

func (a Aggregation) Equal(o Aggregation) bool {
	if len(a) != len(o) {
		return false
	}
	for cur, t := range a {
		ot, ok := o[cur]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}

// Currencies returns the currencies present, sorted.
func (a Aggregation) Currencies() []model.Currency {
	out := make([]model.Currency, 0, len(a))
	for cur := range a {
		out = append(out, cur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func price(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
