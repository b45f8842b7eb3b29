package service

import (
	"context"
	"fmt"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// UserService answers "who am I" for signed-in account holders.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// Profile loads the account behind id. Passcode identities have no account.
func (s *UserService) Profile(ctx context.Context, id domain.Identity) (domain.User, error) {
	if id.Method != domain.MethodAccount || id.UserID == 0 {
		return domain.User{}, ErrUserNotFound
	}

	user, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}
