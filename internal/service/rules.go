package service

import (
	"fmt"
	"strings"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/validation"

	"github.com/shopspring/decimal"
)

const (
	fieldDescription   = "description"
	fieldPurchasePrice = "purchase_price"
	fieldSalePrice     = "sale_price"
	fieldFormatOfSell  = "format_of_sell"
	fieldIsActive      = "is_active"
)

var (
	minPrice = decimal.RequireFromString("0.20")
	maxPrice = decimal.NewFromInt(1000000)
)

const (
	msgRequired  = "is required"
	msgAlphaNum  = "must only contain letters and numbers"
	msgNotUnique = "not unique"
	msgNumeric   = "must be a number"
	msgBoolean   = "must be true or false"
)

func msgMinChars(n int) string { return fmt.Sprintf("must be at least %d characters", n) }
func msgMaxChars(n int) string { return fmt.Sprintf("must not be greater than %d characters", n) }

func formatValues() []string {
	out := make([]string, 0, len(model.FormatsOfSell))
	for _, f := range model.FormatsOfSell {
		out = append(out, string(f))
	}
	return out
}

func descriptionField() validation.Field {
	return validation.Field{Name: fieldDescription, Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.Tag(msgMinChars(3), "min=3"),
		validation.Tag(msgMaxChars(150), "max=150"),
	}}
}

func priceField(name string, optional bool) validation.Field {
	return validation.Field{Name: name, Optional: optional, Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.Numeric(msgNumeric),
		validation.MinDecimal("must be at least "+minPrice.StringFixed(2), minPrice),
		validation.MaxDecimal("must not be greater than "+maxPrice.String(), maxPrice),
	}}
}

// priceValue reads a validated price rounded to cents, the scale prices are
// stored with, so responses and events match what was persisted.
func priceValue(in dto.Payload, field string) (decimal.Decimal, bool) {
	d, ok := validation.Decimal(in[field])
	if !ok {
		return d, false
	}
	return d.Round(2), true
}

func formatField() validation.Field {
	values := formatValues()
	return validation.Field{Name: fieldFormatOfSell, Rules: []validation.Rule{
		validation.Required(msgRequired),
		validation.Tag("must be one of: "+strings.Join(values, ", "), "oneof="+strings.Join(values, " ")),
	}}
}

func isActiveField() validation.Field {
	return validation.Field{Name: fieldIsActive, Optional: true, Rules: []validation.Rule{
		validation.Boolean(msgBoolean),
	}}
}

// createRules: every attribute required, is_active optional.
func createRules(identity *IdentityValidator) validation.Table {
	t := validation.Table{descriptionField()}
	t = append(t, identity.Fields(0)...)
	return append(t,
		priceField(fieldPurchasePrice, false),
		priceField(fieldSalePrice, false),
		formatField(),
		isActiveField(),
	)
}

// updateRules: descriptive attributes required, prices validated only when
// sent, the product itself excluded from the uniqueness checks.
func updateRules(identity *IdentityValidator, productID uint) validation.Table {
	t := validation.Table{descriptionField()}
	t = append(t, identity.Fields(productID)...)
	return append(t,
		priceField(fieldPurchasePrice, true),
		priceField(fieldSalePrice, true),
		formatField(),
		isActiveField(),
	)
}

func priceUpdateRules() validation.Table {
	return validation.Table{
		priceField(fieldPurchasePrice, false),
		priceField(fieldSalePrice, false),
	}
}
