package service

import (
	"context"
	"errors"
	"time"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

// Login issues a bearer token for an active staff user. Unknown users, wrong
// passwords and non-staff accounts are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindActiveStaffByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.ErrUnauthorized
	}

	ttl := s.cfg.JWTExpiration()
	accessToken, err := s.generateToken(user, ttl)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Type: "token",
		Attributes: dto.TokenAttributes{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   int(ttl.Seconds()),
		},
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
