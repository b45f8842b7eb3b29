package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/repository"
)

var (
	ErrUserEmailExists  = repository.ErrUserEmailExists
	ErrWrongPassword    = errors.New("wrong password")
	ErrWrongPasscode    = errors.New("wrong passcode")
	ErrNotAllowListed   = errors.New("email is not on the admin allow-list")
	ErrAccountsDisabled = errors.New("accounts are not enabled")
	ErrPasscodeDisabled = errors.New("passcode sign-in is not enabled")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	RecordLogin(ctx context.Context, id uint, at time.Time) error
}

// Registration is a signup request that passed request validation.
type Registration struct {
	Email       string
	DisplayName string
	Password    string
}

type BoardReader interface {
	Snapshot() domain.Fundraiser
}

type AuthService struct {
	repo   AuthUserRepository
	board  BoardReader
	policy *AdminPolicy
}

// NewAuthService wires sign-in for either variant. repo may be nil in
// passcode mode.
func NewAuthService(repo AuthUserRepository, board BoardReader, policy *AdminPolicy) *AuthService {
	return &AuthService{
		repo:   repo,
		board:  board,
		policy: policy,
	}
}

func (s *AuthService) Policy() *AdminPolicy {
	return s.policy
}

// PasscodeLogin checks the passcode against the current gate. The identity
// is bound to the gate revision, so toggling the gate signs everyone out.
func (s *AuthService) PasscodeLogin(passcode string) (domain.Identity, error) {
	if s.policy.AccountsMode() {
		return domain.Identity{}, ErrPasscodeDisabled
	}

	gate := s.board.Snapshot().Admin
	if gate.Enabled && subtle.ConstantTimeCompare([]byte(passcode), []byte(gate.Passcode)) != 1 {
		return domain.Identity{}, ErrWrongPasscode
	}

	return domain.Identity{
		Method:       domain.MethodPasscode,
		GateRevision: gate.Revision,
	}, nil
}

func (s *AuthService) Signup(ctx context.Context, reg Registration) (domain.User, error) {
	if !s.policy.AccountsMode() || s.repo == nil {
		return domain.User{}, ErrAccountsDisabled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.User{
		Email:        domain.NormalizeEmail(reg.Email),
		DisplayName:  reg.DisplayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// Login verifies the password and then the allow-list. Anyone may hold an
// account but only allow-listed emails get an admin identity.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	if !s.policy.AccountsMode() || s.repo == nil {
		return domain.Identity{}, ErrAccountsDisabled
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.Identity{}, ErrUserNotFound
		}

		return domain.Identity{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, ErrWrongPassword
	}

	if !s.policy.IsAllowListed(user.Email) {
		return domain.Identity{}, ErrNotAllowListed
	}

	// A failed stamp must not block sign-in.
	if err = s.repo.RecordLogin(ctx, user.ID, time.Now()); err != nil {
		zap.L().Warn("recording login failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return domain.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Method: domain.MethodAccount,
	}, nil
}
