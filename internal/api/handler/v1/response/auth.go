package response

import "github.com/vietanh2810/squares-api/internal/domain"

type LoginResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

type MeResponse struct {
	Identity    domain.Identity `json:"identity"`
	Admin       bool            `json:"admin"`
	Mode        string          `json:"mode"`
	GateEnabled bool            `json:"gateEnabled"`
	User        *domain.User    `json:"user,omitempty"`
}

type SignupResponse struct {
	User domain.User `json:"user"`
	// Admin reports whether the email is on the allow-list right now.
	Admin bool `json:"admin"`
}
