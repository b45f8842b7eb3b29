package request

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/service"
)

const maxNameLength = 60

var (
	errNotScalar        = errors.New("must be a number, a string or null")
	errPasscodeRequired = errors.New("passcode is required when enabling the gate")
)

type CellRequest struct {
	Name string `json:"name"`
}

func (req *CellRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, maxNameLength)),
	)
}

// ScoreRequest carries the last digit of each team's score. The value may be
// a string or a number; its first decimal character is kept, so "7" and 7
// mean 7 while "17" means 1.
type ScoreRequest struct {
	TeamA any `json:"teamA"`
	TeamB any `json:"teamB"`
}

func (req *ScoreRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TeamA, validation.By(scalar)),
		validation.Field(&req.TeamB, validation.By(scalar)),
	)
}

func scalar(v interface{}) error {
	switch v.(type) {
	case nil, string, float64, bool:
		return nil
	}
	return errNotScalar
}

type RevealRequest struct {
	Revealed *bool `json:"revealed"`
}

func (req *RevealRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Revealed, validation.NotNil),
	)
}

type LockRequest struct {
	Locked *bool `json:"locked"`
}

func (req *LockRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Locked, validation.NotNil),
	)
}

type GateRequest struct {
	Enabled  *bool  `json:"enabled"`
	Passcode string `json:"passcode"`
}

func (req *GateRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Enabled, validation.NotNil),
		validation.Field(&req.Passcode, validation.Length(0, 128)),
	)
	if err != nil {
		return err
	}

	if *req.Enabled && req.Passcode == "" {
		return errPasscodeRequired
	}

	return nil
}

// SettingsRequest replaces whichever groups are present.
type SettingsRequest struct {
	Meta        *domain.Meta        `json:"meta"`
	Teams       *domain.Teams       `json:"teams"`
	Rules       *domain.Rules       `json:"rules"`
	Payouts     *domain.Payouts     `json:"payouts"`
	Fundraising *domain.Fundraising `json:"fundraising"`
}

func (req *SettingsRequest) Validate() error {
	if req.Meta == nil && req.Teams == nil && req.Rules == nil && req.Payouts == nil && req.Fundraising == nil {
		return errors.New("at least one settings group is required")
	}

	if t := req.Teams; t != nil {
		if err := validation.ValidateStruct(
			t,
			validation.Field(&t.Top, validation.Required, validation.Length(1, maxNameLength)),
			validation.Field(&t.Left, validation.Required, validation.Length(1, maxNameLength)),
		); err != nil {
			return fmt.Errorf("teams: %w", err)
		}
	}

	if m := req.Meta; m != nil {
		if err := validation.ValidateStruct(
			m,
			validation.Field(&m.Title, validation.Required, validation.Length(1, 200)),
		); err != nil {
			return fmt.Errorf("meta: %w", err)
		}
	}

	if f := req.Fundraising; f != nil {
		if err := validation.ValidateStruct(
			f,
			validation.Field(&f.PerSquare, validation.Min(0)),
			validation.Field(&f.Goal, validation.Min(0)),
		); err != nil {
			return fmt.Errorf("fundraising: %w", err)
		}
	}

	return nil
}

func (req *SettingsRequest) ToSettings() service.Settings {
	return service.Settings{
		Meta:        req.Meta,
		Teams:       req.Teams,
		Rules:       req.Rules,
		Payouts:     req.Payouts,
		Fundraising: req.Fundraising,
	}
}
