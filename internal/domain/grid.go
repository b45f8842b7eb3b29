package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCoord = errors.New("invalid coordinate")

// Coord addresses one cell. Its text form "row-col" is the grid map key.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewCoord(row, col int) (Coord, error) {
	c := Coord{Row: row, Col: col}
	if !c.Valid() {
		return Coord{}, fmt.Errorf("%w: (%d,%d)", ErrInvalidCoord, row, col)
	}
	return c, nil
}

func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < AxisSize && c.Col >= 0 && c.Col < AxisSize
}

func (c Coord) String() string {
	return fmt.Sprintf("%d-%d", c.Row, c.Col)
}

func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coord) UnmarshalText(text []byte) error {
	var row, col int
	if _, err := fmt.Sscanf(string(text), "%d-%d", &row, &col); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCoord, text)
	}
	c.Row, c.Col = row, col
	return nil
}

type Cell struct {
	Name string `json:"name"`
}

func (c Cell) Filled() bool {
	return strings.TrimSpace(c.Name) != ""
}

// Grid is the flat cell map. A full grid always holds all 100 coordinates.
type Grid map[Coord]Cell

func EmptyGrid() Grid {
	g := make(Grid, AxisSize*AxisSize)
	for r := 0; r < AxisSize; r++ {
		for c := 0; c < AxisSize; c++ {
			g[Coord{Row: r, Col: c}] = Cell{}
		}
	}
	return g
}

func (g Grid) Cell(c Coord) Cell {
	return g[c]
}

func (g Grid) FilledCount() int {
	n := 0
	for _, cell := range g {
		if cell.Filled() {
			n++
		}
	}
	return n
}

func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

func (g Grid) Equal(o Grid) bool {
	if len(g) != len(o) {
		return false
	}
	for k, v := range g {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clear empties every cell.
func (g Grid) Clear() {
	for k := range g {
		g[k] = Cell{}
	}
}

// overlay copies in-range cells from src onto g.
func (g Grid) overlay(src Grid) {
	for k, v := range src {
		if k.Valid() {
			g[k] = v
		}
	}
}

// UnmarshalJSON accepts the flat "row-col" map and the older nested
// [row][col] array form. Keys that do not parse are skipped.
func (g *Grid) UnmarshalJSON(data []byte) error {
	out := Grid{}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var rows [][]Cell
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("grid rows: %w", err)
		}
		for r, row := range rows {
			for c, cell := range row {
				out[Coord{Row: r, Col: c}] = cell
			}
		}
		*g = out
		return nil
	}

	var flat map[string]Cell
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("grid map: %w", err)
	}
	for key, cell := range flat {
		var c Coord
		if err := c.UnmarshalText([]byte(key)); err != nil {
			continue
		}
		out[c] = cell
	}
	*g = out
	return nil
}
