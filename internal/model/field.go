package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names an editable column of a stored product.
type Field string

const (
	FieldName      Field = "name"
	FieldCategory  Field = "category"
	FieldFirma     Field = "firma"
	FieldCode      Field = "code"
	FieldQuantity  Field = "quantity"
	FieldCostPrice Field = "cost_price"
	FieldSalePrice Field = "sale_price"
)

var ErrUnknownField = errors.New("unknown field")

// EditableFields lists the fields in the order they are offered for editing.
var EditableFields = []Field{
	FieldName, FieldCategory, FieldFirma, FieldCode,
	FieldQuantity, FieldCostPrice, FieldSalePrice,
}

func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EditableFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) Numeric() bool {
	return f == FieldQuantity || f == FieldCostPrice || f == FieldSalePrice
}

// Column is the storage column backing the field.
func (f Field) Column() string {
	return string(f)
}

// CoerceError reports a raw value that does not fit the field.
type CoerceError struct {
	Field Field
	Raw   string
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("value %q is not valid for %s", e.Raw, e.Field)
}

// Coerce converts a raw text value into the type stored for f.
// Text fields are returned verbatim, but a name may not be blank. Quantity
// must be a whole number and prices any finite number. A comma is accepted
// as decimal separator.
func (f Field) Coerce(raw string) (any, error) {
	if !f.Numeric() {
		if f == FieldName && strings.TrimSpace(raw) == "" {
			return nil, &CoerceError{Field: f, Raw: raw}
		}
		return raw, nil
	}

	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, &CoerceError{Field: f, Raw: raw}
	}

	if f == FieldQuantity {
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64/2 {
			return nil, &CoerceError{Field: f, Raw: raw}
		}
		return int64(n), nil
	}
	return n, nil
}

// Set assigns an already coerced value to the product field.
func (p *Product) Set(f Field, v any) error {
	switch f {
	case FieldName:
		p.Name = v.(string)
	case FieldCategory:
		s := v.(string)
		p.Category = &s
	case FieldFirma:
		s := v.(string)
		p.Firma = &s
	case FieldCode:
		s := v.(string)
		p.Code = &s
	case FieldQuantity:
		p.Quantity = v.(int64)
	case FieldCostPrice:
		n := v.(float64)
		p.CostPrice = &n
	case FieldSalePrice:
		n := v.(float64)
		p.SalePrice = &n
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}
