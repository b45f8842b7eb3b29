package domain

import "time"

const (
	MethodPasscode = "passcode"
	MethodAccount  = "account"
)

// User is a hosted-variant account. Holding one does not make anyone an
// admin; the allow-list does.
type User struct {
	ID           uint       `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Identity is whoever is calling, as established by a verified token.
type Identity struct {
	UserID uint   `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	// Method is MethodPasscode or MethodAccount; empty means anonymous.
	Method       string `json:"method,omitempty"`
	GateRevision int    `json:"-"`
}

func (i Identity) Anonymous() bool {
	return i.Method == ""
}
