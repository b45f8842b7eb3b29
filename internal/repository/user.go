package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}

// UserRepository normalizes emails on the way in, so the allow-list and
// stored accounts always compare the same way.
type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row, err := r.dao.Insert(ctx, dao.User{
		Email:        domain.NormalizeEmail(user.Email),
		PasswordHash: user.PasswordHash,
		DisplayName:  user.DisplayName,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return toDomainUser(row), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	row, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return toDomainUser(row), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.dao.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return toDomainUser(row), nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, id uint, at time.Time) error {
	if err := r.dao.TouchLogin(ctx, id, at.UTC()); err != nil {
		return fmt.Errorf("r.dao.TouchLogin -> %w", err)
	}

	return nil
}

func toDomainUser(row dao.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		LastLoginAt:  row.LastLoginAt,
		CreatedAt:    row.CreatedAt,
	}
}
