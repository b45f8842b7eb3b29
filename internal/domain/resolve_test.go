package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_IdentityScenario(t *testing.T) {
	got := Resolve(IdentityPermutation(), IdentityPermutation(), 7, 4)

	assert.Equal(t, Resolution{TeamADigit: 7, TeamBDigit: 4, Row: 4, Col: 7, Valid: true}, got)
	assert.Equal(t, Coord{Row: 4, Col: 7}, got.Coord())
}

func TestResolve_Shuffled(t *testing.T) {
	top := Permutation{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	left := Permutation{5, 0, 1, 2, 3, 4, 6, 7, 8, 9}

	got := Resolve(top, left, 7, 4)
	assert.Equal(t, 2, got.Col)
	assert.Equal(t, 5, got.Row)
	assert.True(t, got.Valid)

	assert.Equal(t, got, Resolve(top, left, 7, 4))
}

func TestResolve_PartialPermutation(t *testing.T) {
	got := Resolve(Permutation{0, 1, 2}, IdentityPermutation(), 7, 4)

	assert.False(t, got.Valid)
	assert.Equal(t, -1, got.Col)
	assert.Equal(t, 4, got.Row)
}

func TestResolve_OversizedPermutation(t *testing.T) {
	top := Permutation{0, 1, 2, 3, 4, 5, 6, 8, 9, 0, 1, 7}

	got := Resolve(top, IdentityPermutation(), 7, 4)
	assert.False(t, got.Valid)
	assert.Equal(t, -1, got.Col)
	assert.Equal(t, 4, got.Row)

	f := DefaultFundraiser()
	f.Numbers.Top = top
	f.Scoreboard.TeamA.Set(CheckpointQ1, 7)
	f.Scoreboard.TeamB.Set(CheckpointQ1, 4)
	f.Reveals.Set(CheckpointQ1, true)

	view := NewPublicView(f)
	assert.Equal(t, WinnerPending, view.Winners[0].Status)
	assert.Nil(t, view.Winners[0].Square)
}

func TestFundraiser_WinnersRecomputed(t *testing.T) {
	f := DefaultFundraiser()
	f.Scoreboard.TeamA.Set(CheckpointQ1, "7")
	f.Scoreboard.TeamB.Set(CheckpointQ1, 4)

	assert.Equal(t, Coord{Row: 4, Col: 7}, f.Winners()[CheckpointQ1].Coord())

	f.Numbers.Top = Permutation{7, 0, 1, 2, 3, 4, 5, 6, 8, 9}
	assert.Equal(t, Coord{Row: 4, Col: 0}, f.Winners()[CheckpointQ1].Coord())

	cp, ok := f.WinningCheckpoint(Coord{Row: 4, Col: 0})
	assert.True(t, ok)
	assert.Equal(t, CheckpointQ1, cp)
}

func TestTeamScores_SetKeepsFirstDigit(t *testing.T) {
	var scores TeamScores
	scores.Set(CheckpointFinal, "17")
	scores.Set(CheckpointQ3, 24)

	// Callers send the last digit; a full score is read by its first digit.
	assert.Equal(t, Digit(1), scores.Final)
	assert.Equal(t, Digit(2), scores.Q3)
}
