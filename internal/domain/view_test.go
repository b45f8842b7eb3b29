package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func winnerFor(t *testing.T, winners []WinnerView, c Checkpoint) WinnerView {
	t.Helper()
	for _, w := range winners {
		if w.Checkpoint == c {
			return w
		}
	}
	t.Fatalf("no winner view for %s", c)
	return WinnerView{}
}

func TestPublicView_HidesUnrevealedWinner(t *testing.T) {
	f := DefaultFundraiser()
	f.Numbers.Randomized = true
	f.Scoreboard.TeamA.Set(CheckpointQ1, 7)
	f.Scoreboard.TeamB.Set(CheckpointQ1, 4)
	f.Grid[Coord{Row: 4, Col: 7}] = Cell{Name: "Alice"}
	require.True(t, f.Winners()[CheckpointQ1].Valid)

	view := NewPublicView(f)
	w := winnerFor(t, view.Winners, CheckpointQ1)
	assert.Equal(t, WinnerHidden, w.Status)
	assert.Nil(t, w.Square)
	assert.Nil(t, w.TeamADigit)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Alice\",\"winner")

	for _, c := range view.Cells {
		assert.Empty(t, c.Winner)
	}
}

func TestPublicView_RevealedWinner(t *testing.T) {
	f := DefaultFundraiser()
	f.Numbers.Randomized = true
	f.Scoreboard.TeamA.Set(CheckpointQ1, 7)
	f.Scoreboard.TeamB.Set(CheckpointQ1, 4)
	f.Grid[Coord{Row: 4, Col: 7}] = Cell{Name: "Alice"}
	f.Reveals.Set(CheckpointQ1, true)
	f.Payouts.Q1 = "$25"

	view := NewPublicView(f)
	w := winnerFor(t, view.Winners, CheckpointQ1)
	require.NotNil(t, w.Square)
	assert.Equal(t, WinnerRevealed, w.Status)
	assert.Equal(t, "Alice", w.Square.Name)
	assert.Equal(t, 4, w.Square.Row)
	assert.Equal(t, 7, w.Square.Col)
	assert.Equal(t, "$25", w.Payout)

	assert.Equal(t, "Q1", view.Cells[4*AxisSize+7].Winner)
	assert.Equal(t, WinnerHidden, winnerFor(t, view.Winners, CheckpointFinal).Status)
}

func TestPublicView_RevealedButPending(t *testing.T) {
	f := DefaultFundraiser()
	f.Numbers.Top = Permutation{1, 2, 3}
	f.Reveals.Set(CheckpointQ3, true)

	w := winnerFor(t, NewPublicView(f).Winners, CheckpointQ3)
	assert.Equal(t, WinnerPending, w.Status)
	assert.Nil(t, w.Square)
}

func TestPublicView_PlaceholderAxisBeforeDraw(t *testing.T) {
	f := DefaultFundraiser()

	view := NewPublicView(f)
	for i := 0; i < AxisSize; i++ {
		assert.Equal(t, AxisPlaceholder, view.Axis.Top[i])
		assert.Equal(t, AxisPlaceholder, view.Axis.Left[i])
	}
	assert.False(t, view.Axis.Randomized)

	f.Numbers.Randomized = true
	view = NewPublicView(f)
	assert.Equal(t, "3", view.Axis.Top[3])
}

func TestPublicView_NeverCarriesPasscode(t *testing.T) {
	f := DefaultFundraiser()
	f.SetGate(true, "s3cret-code")

	raw, err := json.Marshal(NewPublicView(f))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret-code")
	assert.True(t, NewPublicView(f).GateEnabled)
}

func TestAdminView_SeesUnrevealed(t *testing.T) {
	f := DefaultFundraiser()
	f.Scoreboard.TeamA.Set(CheckpointFinal, 3)
	f.Scoreboard.TeamB.Set(CheckpointFinal, 1)
	f.Grid[Coord{Row: 1, Col: 3}] = Cell{Name: "Dan"}

	view := NewAdminView(f)
	w := winnerFor(t, view.Winners, CheckpointFinal)
	require.NotNil(t, w.Square)
	assert.Equal(t, "Dan", w.Square.Name)
	assert.False(t, w.Revealed)
	assert.Equal(t, "1", view.Axis.Left[1])
}
