// cmd/seeduser creates or resets a staff account able to log in.
// Usage: go run ./cmd/seeduser -email admin@myownpos.local -password changeme
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@myownpos.local", "staff e-mail")
	password := flag.String("password", "", "plain password (required)")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()
	if *password == "" {
		log.Fatal().Msg("-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	u, err := users.FindByEmail(ctx, *email)
	switch {
	case errors.Is(err, apierror.ErrNotFound):
		u = &model.User{Name: *name, Email: *email, PasswordHash: hash, IsActive: true, IsStaff: true}
		err = users.Create(ctx, u)
	case err == nil:
		u.Name, u.PasswordHash, u.IsActive, u.IsStaff = *name, hash, true, true
		err = users.Update(ctx, u)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save user")
	}
	log.Info().Uint("id", u.ID).Str("email", u.Email).Msg("staff user ready")
}
