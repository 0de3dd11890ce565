package service

import (
	"context"

	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/validation"
)

// CodeLookup answers whether a code is held by a live product other than
// excludeID (0 excludes nothing). repository.ProductRepository satisfies it.
type CodeLookup interface {
	CodeInUse(ctx context.Context, column, code string, excludeID uint) (bool, error)
}

// IdentityValidator enforces that barcode and alternative_code share one
// uniqueness namespace across live products: neither code of a product may
// equal either code of another. A product may reuse one value for both of its
// own codes, and on update the product itself is excluded.
type IdentityValidator struct {
	lookup CodeLookup
}

func NewIdentityValidator(lookup CodeLookup) *IdentityValidator {
	return &IdentityValidator{lookup: lookup}
}

// Fields returns the barcode and alternative_code rows of a rule table.
func (v *IdentityValidator) Fields(excludeID uint) validation.Table {
	return validation.Table{
		{Name: repository.ColumnBarcode, Rules: v.codeRules(repository.ColumnBarcode, repository.ColumnAlternativeCode, excludeID)},
		{Name: repository.ColumnAlternativeCode, Rules: v.codeRules(repository.ColumnAlternativeCode, repository.ColumnBarcode, excludeID)},
	}
}

// Check validates a candidate pair on its own.
func (v *IdentityValidator) Check(ctx context.Context, barcode, alternativeCode string, excludeID uint) (validation.Violations, error) {
	return v.Fields(excludeID).Validate(ctx, map[string]any{
		repository.ColumnBarcode:         barcode,
		repository.ColumnAlternativeCode: alternativeCode,
	})
}

func (v *IdentityValidator) codeRules(own, other string, excludeID uint) []validation.Rule {
	return []validation.Rule{
		validation.Required(msgRequired),
		validation.Tag(msgAlphaNum, "alphanum"),
		validation.Tag(msgMinChars(3), "min=3"),
		validation.Tag(msgMaxChars(20), "max=20"),
		validation.Func(msgNotUnique, v.unique(own, excludeID)),
		validation.Func(msgNotUnique, v.unique(other, excludeID)),
	}
}

func (v *IdentityValidator) unique(column string, excludeID uint) validation.CheckFunc {
	return func(ctx context.Context, value any) (bool, error) {
		code, _ := validation.String(value)
		inUse, err := v.lookup.CodeInUse(ctx, column, code, excludeID)
		if err != nil {
			return false, err
		}
		return !inUse, nil
	}
}
