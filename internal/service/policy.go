package service

import (
	"slices"

	"github.com/vietanh2810/squares-api/internal/domain"
)

// AdminPolicy decides who is an admin of a given board state.
//
// In passcode mode a token is admin while its gate revision matches the
// board. In accounts mode the token email must be on the allow-list, which
// is read on every call so config reloads apply immediately.
type AdminPolicy struct {
	accounts bool
	admins   func() []string
}

func NewPasscodePolicy() *AdminPolicy {
	return &AdminPolicy{}
}

func NewAccountsPolicy(admins func() []string) *AdminPolicy {
	return &AdminPolicy{
		accounts: true,
		admins:   admins,
	}
}

func (p *AdminPolicy) AccountsMode() bool {
	return p.accounts
}

func (p *AdminPolicy) Access(id domain.Identity, f domain.Fundraiser) domain.Access {
	return domain.Access{
		GateRequired:  p.GateRequired(f),
		Authenticated: p.Authenticated(id, f),
		Locked:        f.UI.LockedBoard,
	}
}

// GateRequired is false only for the passcode variant with the gate off.
func (p *AdminPolicy) GateRequired(f domain.Fundraiser) bool {
	if p.accounts {
		return true
	}
	return f.Admin.Enabled
}

func (p *AdminPolicy) Authenticated(id domain.Identity, f domain.Fundraiser) bool {
	if p.accounts {
		return id.Method == domain.MethodAccount && p.IsAllowListed(id.Email)
	}
	return id.Method == domain.MethodPasscode && id.GateRevision == f.Admin.Revision
}

func (p *AdminPolicy) IsAllowListed(email string) bool {
	if p.admins == nil {
		return false
	}

	email = domain.NormalizeEmail(email)
	if email == "" {
		return false
	}

	return slices.ContainsFunc(p.admins(), func(admin string) bool {
		return domain.NormalizeEmail(admin) == email
	})
}
