package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/shoping-live/internal/auth/app"
	"github.com/dwikikusuma/shoping-live/internal/auth/domain"
	"github.com/dwikikusuma/shoping-live/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	row := database.UserRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, app.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return toDomain(row), nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.find(ctx, "email = ?", email)
}

func (r *UserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *UserRepo) find(ctx context.Context, cond string, arg string) (domain.User, error) {
	var row database.UserRow
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, app.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toDomain(row), nil
}

func toDomain(row database.UserRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
