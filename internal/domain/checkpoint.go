package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownCheckpoint = errors.New("unknown checkpoint")

// Checkpoint is one of the four scoring milestones.
type Checkpoint string

const (
	CheckpointQ1       Checkpoint = "q1"
	CheckpointHalftime Checkpoint = "halftime"
	CheckpointQ3       Checkpoint = "q3"
	CheckpointFinal    Checkpoint = "final"
)

// Checkpoints lists every checkpoint in game order.
var Checkpoints = []Checkpoint{CheckpointQ1, CheckpointHalftime, CheckpointQ3, CheckpointFinal}

func ParseCheckpoint(s string) (Checkpoint, error) {
	for _, c := range Checkpoints {
		if string(c) == s {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCheckpoint, s)
}

// Label is the short badge text shown on a winning square.
func (c Checkpoint) Label() string {
	switch c {
	case CheckpointQ1:
		return "Q1"
	case CheckpointHalftime:
		return "Half"
	case CheckpointQ3:
		return "Q3"
	case CheckpointFinal:
		return "Final"
	}
	return ""
}
