package service

import (
	"context"
	"strings"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/validation"

	"gorm.io/gorm"
)

// Actor is the authenticated user on whose behalf an operation runs. Handlers
// build it from the verified token and pass it explicitly.
type Actor struct {
	UserID uint
	Email  string
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }

func requireActor(a Actor) error {
	if !a.Authenticated() {
		return apierror.ErrUnauthorized
	}
	return nil
}

// runTx executes fn inside a DB transaction when db is non-nil.
// When db is nil (unit tests with stub repos), fn is called directly with nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// trimStrings returns a copy of in with surrounding whitespace removed from
// every string member.
func trimStrings(in dto.Payload) dto.Payload {
	out := make(dto.Payload, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		out[k] = v
	}
	return out
}

func validationError(v validation.Violations) error {
	return apierror.NewValidation(v)
}
