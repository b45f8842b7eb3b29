package domain

import (
	"strconv"
	"time"
)

// AxisPlaceholder is shown instead of digits until the numbers are drawn.
const AxisPlaceholder = "?"

type WinnerStatus string

const (
	// WinnerHidden means the checkpoint has not been revealed yet.
	WinnerHidden WinnerStatus = "hidden"
	// WinnerPending means revealed, but the permutations are not usable.
	WinnerPending  WinnerStatus = "pending"
	WinnerRevealed WinnerStatus = "revealed"
)

type Axis struct {
	Top        []string `json:"top"`
	Left       []string `json:"left"`
	Randomized bool     `json:"randomized"`
}

type Square struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	TopDigit  Digit  `json:"topDigit"`
	LeftDigit Digit  `json:"leftDigit"`
	Name      string `json:"name"`
}

type WinnerView struct {
	Checkpoint Checkpoint   `json:"checkpoint"`
	Label      string       `json:"label"`
	Status     WinnerStatus `json:"status"`
	Revealed   bool         `json:"revealed"`
	Payout     string       `json:"payout,omitempty"`
	TeamADigit *Digit       `json:"teamA_last,omitempty"`
	TeamBDigit *Digit       `json:"teamB_last,omitempty"`
	Square     *Square      `json:"square,omitempty"`
}

type CellView struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Name   string `json:"name"`
	Winner string `json:"winner,omitempty"`
}

// PublicView is what anonymous visitors get. It never carries gate settings
// and never exposes an unrevealed winner.
type PublicView struct {
	Meta        Meta         `json:"meta"`
	Teams       Teams        `json:"teams"`
	Rules       Rules        `json:"rules"`
	Axis        Axis         `json:"axis"`
	Cells       []CellView   `json:"cells"`
	Winners     []WinnerView `json:"winners"`
	Stats       Stats        `json:"stats"`
	Locked      bool         `json:"locked"`
	GateEnabled bool         `json:"gateEnabled"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// AdminView is the full aggregate plus every resolution, revealed or not.
type AdminView struct {
	Fundraiser Fundraiser   `json:"fundraiser"`
	Axis       Axis         `json:"axis"`
	Cells      []CellView   `json:"cells"`
	Winners    []WinnerView `json:"winners"`
	Stats      Stats        `json:"stats"`
}

func NewPublicView(f Fundraiser) PublicView {
	winners := buildWinners(f, true)

	return PublicView{
		Meta:        f.Meta,
		Teams:       f.Teams,
		Rules:       f.Rules,
		Axis:        buildAxis(f.Numbers, true),
		Cells:       buildCells(f, winners),
		Winners:     winners,
		Stats:       f.Stats(),
		Locked:      f.UI.LockedBoard,
		GateEnabled: f.Admin.Enabled,
		UpdatedAt:   f.UpdatedAt,
	}
}

func NewAdminView(f Fundraiser) AdminView {
	winners := buildWinners(f, false)

	return AdminView{
		Fundraiser: f,
		Axis:       buildAxis(f.Numbers, false),
		Cells:      buildCells(f, winners),
		Winners:    winners,
		Stats:      f.Stats(),
	}
}

func buildAxis(n Numbers, public bool) Axis {
	label := func(p Permutation) []string {
		out := make([]string, AxisSize)
		for i := range out {
			switch {
			case public && !n.Randomized:
				out[i] = AxisPlaceholder
			case i < len(p):
				out[i] = strconv.Itoa(int(p[i]))
			default:
				out[i] = AxisPlaceholder
			}
		}
		return out
	}

	return Axis{Top: label(n.Top), Left: label(n.Left), Randomized: n.Randomized}
}

func buildWinners(f Fundraiser, public bool) []WinnerView {
	resolutions := f.Winners()
	out := make([]WinnerView, 0, len(Checkpoints))

	for _, c := range Checkpoints {
		res := resolutions[c]
		revealed := f.Reveals.IsRevealed(c)
		w := WinnerView{
			Checkpoint: c,
			Label:      c.Label(),
			Revealed:   revealed,
			Payout:     f.Payouts.Get(c),
		}

		if public && !revealed {
			w.Status = WinnerHidden
			out = append(out, w)
			continue
		}

		a, b := res.TeamADigit, res.TeamBDigit
		w.TeamADigit, w.TeamBDigit = &a, &b
		if !res.Valid {
			w.Status = WinnerPending
			out = append(out, w)
			continue
		}

		w.Status = WinnerRevealed
		if !revealed {
			w.Status = WinnerHidden
		}
		w.Square = &Square{
			Row:       res.Row,
			Col:       res.Col,
			TopDigit:  f.Numbers.Top[res.Col],
			LeftDigit: f.Numbers.Left[res.Row],
			Name:      f.Grid.Cell(res.Coord()).Name,
		}
		out = append(out, w)
	}

	return out
}

func buildCells(f Fundraiser, winners []WinnerView) []CellView {
	badges := make(map[Coord]string, len(winners))
	for i := len(winners) - 1; i >= 0; i-- {
		w := winners[i]
		if w.Square != nil {
			badges[Coord{Row: w.Square.Row, Col: w.Square.Col}] = w.Label
		}
	}

	cells := make([]CellView, 0, AxisSize*AxisSize)
	for r := 0; r < AxisSize; r++ {
		for c := 0; c < AxisSize; c++ {
			coord := Coord{Row: r, Col: c}
			cells = append(cells, CellView{
				Row:    r,
				Col:    c,
				Name:   f.Grid.Cell(coord).Name,
				Winner: badges[coord],
			})
		}
	}

	return cells
}
