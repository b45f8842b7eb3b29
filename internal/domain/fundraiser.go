package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

type Meta struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	IntroHeadline string `json:"introHeadline"`
	IntroBody     string `json:"introBody"`
}

type Teams struct {
	Top  string `json:"top"`
	Left string `json:"left"`
}

type Rules struct {
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes"`
}

// Fundraising amounts are whole currency units.
type Fundraising struct {
	PerSquare int `json:"perSquare"`
	Goal      int `json:"goal"`
}

// AdminGate is the passcode gate of the local variant. Revision changes
// whenever Enabled or Passcode does, which invalidates issued passcode tokens.
type AdminGate struct {
	Enabled  bool   `json:"enabled"`
	Passcode string `json:"passcode"`
	Revision int    `json:"revision"`
}

type UI struct {
	LockedBoard bool `json:"lockedBoard"`
}

// Fundraiser is the whole board state. It is always replaced as a unit.
type Fundraiser struct {
	Meta        Meta        `json:"meta"`
	Teams       Teams       `json:"teams"`
	Numbers     Numbers     `json:"numbers"`
	Rules       Rules       `json:"rules"`
	Grid        Grid        `json:"grid"`
	Scoreboard  Scoreboard  `json:"scoreboard"`
	Reveals     Reveals     `json:"reveals"`
	Payouts     Payouts     `json:"payouts"`
	Fundraising Fundraising `json:"fundraising"`
	Admin       AdminGate   `json:"admin"`
	UI          UI          `json:"ui"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func DefaultFundraiser() Fundraiser {
	return Fundraiser{
		Meta: Meta{
			Title:         "Super Bowl Squares – Westford Food Pantry Fundraiser",
			Subtitle:      "Game day fun for a great cause 💙",
			IntroHeadline: "Super Bowl Squares to Support the Westford Food Pantry",
			IntroBody:     "Hi! This fundraiser is run by our daughter to support the Westford Food Pantry. Thank you for helping families in our community.",
		},
		Teams:   Teams{Top: "Team A", Left: "Team B"},
		Numbers: DefaultNumbers(),
		Rules: Rules{
			Bullets: []string{
				"Each square is one entry.",
				"Numbers across the top and side will be randomized AFTER all squares are filled.",
				"Winners are determined by the LAST digit of each team’s score at Q1, Halftime, Q3, and Final.",
				"We will contact winners after the game.",
			},
			Notes: "All proceeds go to the Westford Food Pantry. Thank you for supporting our community!",
		},
		Grid:        EmptyGrid(),
		Fundraising: Fundraising{PerSquare: 5, Goal: 500},
	}
}

// Clone returns a deep copy safe to mutate.
func (f Fundraiser) Clone() Fundraiser {
	out := f
	out.Numbers = f.Numbers.Clone()
	out.Grid = f.Grid.Clone()
	out.Rules.Bullets = slices.Clone(f.Rules.Bullets)
	return out
}

// Winners resolves every checkpoint against the current permutations.
func (f Fundraiser) Winners() map[Checkpoint]Resolution {
	out := make(map[Checkpoint]Resolution, len(Checkpoints))
	for _, c := range Checkpoints {
		out[c] = Resolve(f.Numbers.Top, f.Numbers.Left, f.Scoreboard.TeamA.Get(c), f.Scoreboard.TeamB.Get(c))
	}
	return out
}

// WinningCheckpoint returns the first checkpoint whose resolution lands on c.
func (f Fundraiser) WinningCheckpoint(c Coord) (Checkpoint, bool) {
	winners := f.Winners()
	for _, cp := range Checkpoints {
		w := winners[cp]
		if w.Valid && w.Coord() == c {
			return cp, true
		}
	}
	return "", false
}

type Stats struct {
	FilledCount     int `json:"filledCount"`
	TotalSquares    int `json:"totalSquares"`
	AmountRaised    int `json:"amountRaised"`
	Goal            int `json:"goal"`
	ProgressPercent int `json:"progressPercent"`
}

func (f Fundraiser) Stats() Stats {
	filled := f.Grid.FilledCount()
	raised := filled * f.Fundraising.PerSquare

	progress := 0
	if f.Fundraising.Goal > 0 {
		progress = int(math.Round(100 * float64(raised) / float64(f.Fundraising.Goal)))
		if progress > 100 {
			progress = 100
		}
	}

	return Stats{
		FilledCount:     filled,
		TotalSquares:    AxisSize * AxisSize,
		AmountRaised:    raised,
		Goal:            f.Fundraising.Goal,
		ProgressPercent: progress,
	}
}

// SetGate updates the passcode gate and bumps the revision on any change.
func (f *Fundraiser) SetGate(enabled bool, passcode string) {
	if f.Admin.Enabled == enabled && f.Admin.Passcode == passcode {
		return
	}
	f.Admin.Enabled = enabled
	f.Admin.Passcode = passcode
	f.Admin.Revision++
}

// BoardContentEqual reports whether the lock-protected parts match: cells,
// scoreboard, reveals and permutations.
func (f Fundraiser) BoardContentEqual(o Fundraiser) bool {
	return f.Grid.Equal(o.Grid) &&
		f.Scoreboard == o.Scoreboard &&
		f.Reveals == o.Reveals &&
		f.Numbers.Equal(o.Numbers)
}

// NormalizeEmail is how admin identities are compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
