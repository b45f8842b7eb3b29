package response

import "github.com/vietanh2810/squares-api/internal/domain"

type IntroResponse struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	IntroHeadline string `json:"introHeadline"`
	IntroBody     string `json:"introBody"`
}

type RulesResponse struct {
	Rules       domain.Rules       `json:"rules"`
	Payouts     domain.Payouts     `json:"payouts"`
	Fundraising domain.Fundraising `json:"fundraising"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
