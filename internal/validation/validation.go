// Package validation evaluates ordered rule tables against raw decoded JSON.
//
// Within a field, rules run in declared order and evaluation stops at the
// first failure. Across fields every violation is collected, so a client sees
// all problems at once. A rule may return an error (for example a storage
// lookup that failed); that aborts validation and is returned as-is.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Violations maps a field name to its failed rule messages.
type Violations map[string][]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

func (v Violations) Merge(other Violations) {
	for f, msgs := range other {
		v[f] = append(v[f], msgs...)
	}
}

// CheckFunc reports whether value passes. A non-nil error is an
// infrastructure failure, not a violation.
type CheckFunc func(ctx context.Context, value any) (bool, error)

type Rule struct {
	Message string
	Check   CheckFunc
}

// Field is one row of a Table. Optional fields skip all their rules when the
// input member is absent or null.
type Field struct {
	Name     string
	Optional bool
	Rules    []Rule
}

type Table []Field

func (t Table) Validate(ctx context.Context, input map[string]any) (Violations, error) {
	out := Violations{}
	for _, f := range t {
		value, present := input[f.Name]
		if f.Optional && (!present || value == nil) {
			continue
		}
		for _, r := range f.Rules {
			ok, err := r.Check(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("validate %s: %w", f.Name, err)
			}
			if !ok {
				out.Add(f.Name, r.Message)
				break
			}
		}
	}
	return out, nil
}

// Fields returns the names of the table rows, in order.
func (t Table) Fields() []string {
	names := make([]string, 0, len(t))
	for _, f := range t {
		names = append(names, f.Name)
	}
	return names
}

// ─── Rule constructors ───────────────────────────────────────────────────────

func Required(msg string) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		switch x := v.(type) {
		case nil:
			return false, nil
		case string:
			return strings.TrimSpace(x) != "", nil
		default:
			return true, nil
		}
	}}
}

// Tag runs a go-playground/validator tag (alphanum, min=3, oneof=...) against
// the string form of the value. Non-scalar values fail.
func Tag(msg, tag string) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		s, ok := String(v)
		if !ok {
			return false, nil
		}
		return validate.Var(s, tag) == nil, nil
	}}
}

func Numeric(msg string) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		_, ok := Decimal(v)
		return ok, nil
	}}
}

func MinDecimal(msg string, lo decimal.Decimal) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		d, ok := Decimal(v)
		return ok && d.GreaterThanOrEqual(lo), nil
	}}
}

func MaxDecimal(msg string, hi decimal.Decimal) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		d, ok := Decimal(v)
		return ok && d.LessThanOrEqual(hi), nil
	}}
}

func Boolean(msg string) Rule {
	return Rule{Message: msg, Check: func(_ context.Context, v any) (bool, error) {
		_, ok := Bool(v)
		return ok, nil
	}}
}

func Func(msg string, fn CheckFunc) Rule {
	return Rule{Message: msg, Check: fn}
}

// ─── Value coercion ──────────────────────────────────────────────────────────

// String returns the textual form of a scalar JSON value.
func String(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return decimal.NewFromFloat(x).String(), true
	default:
		return "", false
	}
}

// Decimal accepts JSON numbers and numeric strings, as form-encoded clients
// send prices as text.
func Decimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// Bool accepts true/false and the 0/1 forms used by the product wire format.
func Bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case json.Number:
		switch x.String() {
		case "0":
			return false, true
		case "1":
			return true, true
		}
	case float64:
		switch x {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case string:
		switch strings.ToLower(x) {
		case "0", "false":
			return false, true
		case "1", "true":
			return true, true
		}
	}
	return false, false
}
