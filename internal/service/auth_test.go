package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/squares-api/internal/domain"
)

func TestAuthService_PasscodeLogin(t *testing.T) {
	svc, _ := newTestService(t, &memStore{}, NewPasscodePolicy())
	auth := NewAuthService(nil, svc, NewPasscodePolicy())

	// With the gate off any passcode works; the board is open anyway.
	id, err := auth.PasscodeLogin("anything")
	require.NoError(t, err)
	assert.Equal(t, domain.MethodPasscode, id.Method)

	enableGate(t, svc, "1234")

	_, err = auth.PasscodeLogin("4321")
	assert.ErrorIs(t, err, ErrWrongPasscode)

	id, err = auth.PasscodeLogin("1234")
	require.NoError(t, err)
	assert.True(t, svc.Access(id).IsAdmin())
	assert.False(t, svc.Access(anonymous).IsAdmin())

	_, err = auth.Signup(context.Background(), Registration{Email: "a@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountsDisabled)
}

func TestAuthService_Accounts(t *testing.T) {
	policy := NewAccountsPolicy(func() []string { return []string{"coach@example.com"} })
	svc, _ := newTestService(t, &memStore{}, policy)
	users := newMemUsers()
	auth := NewAuthService(users, svc, policy)
	ctx := context.Background()

	created, err := auth.Signup(ctx, Registration{Email: " Coach@Example.com", Password: "secret123", DisplayName: "Coach"})
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", created.Email)
	assert.NotEqual(t, "secret123", created.PasswordHash)
	assert.Equal(t, "Coach", created.DisplayName)

	_, err = auth.Signup(ctx, Registration{Email: "coach@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	_, err = auth.Signup(ctx, Registration{Email: "parent@example.com", Password: "secret123", DisplayName: "Parent"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "admin", email: "COACH@example.com", password: "secret123"},
		{name: "wrong password", email: "coach@example.com", password: "nope", wantErr: ErrWrongPassword},
		{name: "unknown", email: "who@example.com", password: "secret123", wantErr: ErrUserNotFound},
		{name: "not allow-listed", email: "parent@example.com", password: "secret123", wantErr: ErrNotAllowListed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.MethodAccount, id.Method)
			assert.True(t, svc.Access(id).IsAdmin())

			user, err := users.FindByEmail(ctx, tt.email)
			require.NoError(t, err)
			assert.NotNil(t, user.LastLoginAt)
		})
	}

	_, err = auth.PasscodeLogin("1234")
	assert.ErrorIs(t, err, ErrPasscodeDisabled)
}

func TestAdminPolicy(t *testing.T) {
	open := domain.DefaultFundraiser()
	gated := domain.DefaultFundraiser()
	gated.SetGate(true, "1234")

	passcode := NewPasscodePolicy()
	assert.False(t, passcode.GateRequired(open))
	assert.True(t, passcode.GateRequired(gated))
	assert.True(t, passcode.Authenticated(domain.Identity{Method: domain.MethodPasscode, GateRevision: 1}, gated))
	assert.False(t, passcode.Authenticated(domain.Identity{Method: domain.MethodPasscode, GateRevision: 0}, gated))
	assert.False(t, passcode.Authenticated(domain.Identity{Method: domain.MethodAccount, GateRevision: 1}, gated))

	accounts := NewAccountsPolicy(func() []string { return []string{" Admin@Example.com"} })
	assert.True(t, accounts.GateRequired(open))
	assert.True(t, accounts.IsAllowListed("admin@example.com"))
	assert.False(t, accounts.IsAllowListed(""))
	assert.False(t, accounts.Authenticated(domain.Identity{Method: domain.MethodPasscode, Email: "admin@example.com"}, open))

	locked := open
	locked.UI.LockedBoard = true
	access := accounts.Access(domain.Identity{Method: domain.MethodAccount, Email: "admin@example.com"}, locked)
	assert.NoError(t, access.CanConfigure())
	assert.ErrorIs(t, access.CanEditBoard(), ErrBoardLocked)
}

func TestUserService_Profile(t *testing.T) {
	users := newMemUsers()
	created, err := users.Create(context.Background(), domain.User{Email: "coach@example.com", DisplayName: "Coach"})
	require.NoError(t, err)

	svc := NewUserService(users)

	got, err := svc.Profile(context.Background(), domain.Identity{Method: domain.MethodAccount, UserID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Coach", got.DisplayName)

	tests := []struct {
		name string
		id   domain.Identity
	}{
		{name: "unknown account", id: domain.Identity{Method: domain.MethodAccount, UserID: 42}},
		{name: "passcode identity", id: domain.Identity{Method: domain.MethodPasscode, UserID: created.ID}},
		{name: "anonymous", id: domain.Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Profile(context.Background(), tt.id)
			assert.ErrorIs(t, err, ErrUserNotFound)
		})
	}
}
