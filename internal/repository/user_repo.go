package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindActiveStaffByEmail only matches users allowed to obtain tokens.
	FindActiveStaffByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)))
}

func (r *userRepo) FindActiveStaffByEmail(ctx context.Context, email string) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).
		Where("email = ? AND is_active = ? AND is_staff = ?", strings.ToLower(email), true, true))
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func firstUser(q *gorm.DB) (*model.User, error) {
	var u model.User
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
