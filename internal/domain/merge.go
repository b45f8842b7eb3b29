package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrMalformedDocument = errors.New("malformed fundraiser document")

// The persisted* types mirror the document schema with every field optional,
// so a missing field keeps its default instead of zeroing it.
type persistedFundraiser struct {
	Meta        *persistedMeta        `json:"meta"`
	Teams       *persistedTeams       `json:"teams"`
	Numbers     *persistedNumbers     `json:"numbers"`
	Rules       *persistedRules       `json:"rules"`
	Grid        *Grid                 `json:"grid"`
	Scoreboard  *persistedScoreboard  `json:"scoreboard"`
	Reveals     *persistedReveals     `json:"reveals"`
	Payouts     *persistedPayouts     `json:"payouts"`
	Fundraising *persistedFundraising `json:"fundraising"`
	Admin       *persistedAdmin       `json:"admin"`
	UI          *persistedUI          `json:"ui"`
	UpdatedAt   *time.Time            `json:"updatedAt"`
}

type persistedMeta struct {
	Title         *string `json:"title"`
	Subtitle      *string `json:"subtitle"`
	IntroHeadline *string `json:"introHeadline"`
	IntroBody     *string `json:"introBody"`
}

type persistedTeams struct {
	Top  *string `json:"top"`
	Left *string `json:"left"`
}

type persistedNumbers struct {
	Top        *Permutation `json:"top"`
	Left       *Permutation `json:"left"`
	Randomized *bool        `json:"randomized"`
}

type persistedRules struct {
	Bullets *[]string `json:"bullets"`
	Notes   *string   `json:"notes"`
}

type persistedTeamScores struct {
	Q1       *Digit `json:"q1"`
	Halftime *Digit `json:"halftime"`
	Q3       *Digit `json:"q3"`
	Final    *Digit `json:"final"`
}

type persistedScoreboard struct {
	TeamA *persistedTeamScores `json:"teamA"`
	TeamB *persistedTeamScores `json:"teamB"`
}

type persistedReveals struct {
	Q1       *bool `json:"q1"`
	Halftime *bool `json:"halftime"`
	Q3       *bool `json:"q3"`
	Final    *bool `json:"final"`
}

type persistedPayouts struct {
	Q1       *string `json:"q1"`
	Halftime *string `json:"halftime"`
	Q3       *string `json:"q3"`
	Final    *string `json:"final"`
}

type persistedFundraising struct {
	PerSquare *int `json:"perSquare"`
	Goal      *int `json:"goal"`
}

type persistedAdmin struct {
	Enabled  *bool   `json:"enabled"`
	Passcode *string `json:"passcode"`
	Revision *int    `json:"revision"`
}

type persistedUI struct {
	LockedBoard *bool `json:"lockedBoard"`
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// DecodeMerged overlays a persisted document onto the defaults, group by
// group. Unknown keys are dropped. Empty input yields the defaults.
func DecodeMerged(raw []byte) (Fundraiser, error) {
	f := DefaultFundraiser()
	if len(bytes.TrimSpace(raw)) == 0 {
		return f, nil
	}

	var p persistedFundraiser
	if err := json.Unmarshal(raw, &p); err != nil {
		return DefaultFundraiser(), fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if m := p.Meta; m != nil {
		overlay(&f.Meta.Title, m.Title)
		overlay(&f.Meta.Subtitle, m.Subtitle)
		overlay(&f.Meta.IntroHeadline, m.IntroHeadline)
		overlay(&f.Meta.IntroBody, m.IntroBody)
	}
	if t := p.Teams; t != nil {
		overlay(&f.Teams.Top, t.Top)
		overlay(&f.Teams.Left, t.Left)
	}
	if n := p.Numbers; n != nil {
		overlay(&f.Numbers.Top, n.Top)
		overlay(&f.Numbers.Left, n.Left)
		overlay(&f.Numbers.Randomized, n.Randomized)
	}
	if r := p.Rules; r != nil {
		overlay(&f.Rules.Bullets, r.Bullets)
		overlay(&f.Rules.Notes, r.Notes)
	}
	if p.Grid != nil {
		f.Grid.overlay(*p.Grid)
	}
	if s := p.Scoreboard; s != nil {
		overlayScores(&f.Scoreboard.TeamA, s.TeamA)
		overlayScores(&f.Scoreboard.TeamB, s.TeamB)
	}
	if r := p.Reveals; r != nil {
		overlay(&f.Reveals.Q1, r.Q1)
		overlay(&f.Reveals.Halftime, r.Halftime)
		overlay(&f.Reveals.Q3, r.Q3)
		overlay(&f.Reveals.Final, r.Final)
	}
	if po := p.Payouts; po != nil {
		overlay(&f.Payouts.Q1, po.Q1)
		overlay(&f.Payouts.Halftime, po.Halftime)
		overlay(&f.Payouts.Q3, po.Q3)
		overlay(&f.Payouts.Final, po.Final)
	}
	if fr := p.Fundraising; fr != nil {
		overlay(&f.Fundraising.PerSquare, fr.PerSquare)
		overlay(&f.Fundraising.Goal, fr.Goal)
	}
	if a := p.Admin; a != nil {
		overlay(&f.Admin.Enabled, a.Enabled)
		overlay(&f.Admin.Passcode, a.Passcode)
		overlay(&f.Admin.Revision, a.Revision)
	}
	if u := p.UI; u != nil {
		overlay(&f.UI.LockedBoard, u.LockedBoard)
	}
	overlay(&f.UpdatedAt, p.UpdatedAt)

	return f, nil
}

func overlayScores(dst *TeamScores, src *persistedTeamScores) {
	if src == nil {
		return
	}
	overlay(&dst.Q1, src.Q1)
	overlay(&dst.Halftime, src.Halftime)
	overlay(&dst.Q3, src.Q3)
	overlay(&dst.Final, src.Final)
}

// LoadMerged is DecodeMerged that never fails: anything unreadable becomes
// the default fundraiser.
func LoadMerged(raw []byte) Fundraiser {
	f, err := DecodeMerged(raw)
	if err != nil {
		return DefaultFundraiser()
	}
	return f
}

// Serialize stamps updatedAt and encodes the whole aggregate.
func Serialize(f Fundraiser, now time.Time) ([]byte, error) {
	f.UpdatedAt = now.UTC()

	out, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal -> %w", err)
	}

	return out, nil
}
