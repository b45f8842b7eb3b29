package domain

type TeamScores struct {
	Q1       Digit `json:"q1"`
	Halftime Digit `json:"halftime"`
	Q3       Digit `json:"q3"`
	Final    Digit `json:"final"`
}

func (t TeamScores) Get(c Checkpoint) Digit {
	switch c {
	case CheckpointQ1:
		return t.Q1
	case CheckpointHalftime:
		return t.Halftime
	case CheckpointQ3:
		return t.Q3
	case CheckpointFinal:
		return t.Final
	}
	return 0
}

// Set normalizes v to a digit for c. Callers pass the score's last digit.
func (t *TeamScores) Set(c Checkpoint, v any) {
	d := NormalizeDigit(v)
	switch c {
	case CheckpointQ1:
		t.Q1 = d
	case CheckpointHalftime:
		t.Halftime = d
	case CheckpointQ3:
		t.Q3 = d
	case CheckpointFinal:
		t.Final = d
	}
}

// Scoreboard holds the last score digit of team A (top axis) and team B
// (left axis).
type Scoreboard struct {
	TeamA TeamScores `json:"teamA"`
	TeamB TeamScores `json:"teamB"`
}

// Reveals says which checkpoint winners are visible to the public.
type Reveals struct {
	Q1       bool `json:"q1"`
	Halftime bool `json:"halftime"`
	Q3       bool `json:"q3"`
	Final    bool `json:"final"`
}

func (r Reveals) IsRevealed(c Checkpoint) bool {
	switch c {
	case CheckpointQ1:
		return r.Q1
	case CheckpointHalftime:
		return r.Halftime
	case CheckpointQ3:
		return r.Q3
	case CheckpointFinal:
		return r.Final
	}
	return false
}

func (r *Reveals) Set(c Checkpoint, revealed bool) {
	switch c {
	case CheckpointQ1:
		r.Q1 = revealed
	case CheckpointHalftime:
		r.Halftime = revealed
	case CheckpointQ3:
		r.Q3 = revealed
	case CheckpointFinal:
		r.Final = revealed
	}
}

// Payouts are free-text prize labels per checkpoint.
type Payouts struct {
	Q1       string `json:"q1"`
	Halftime string `json:"halftime"`
	Q3       string `json:"q3"`
	Final    string `json:"final"`
}

func (p Payouts) Get(c Checkpoint) string {
	switch c {
	case CheckpointQ1:
		return p.Q1
	case CheckpointHalftime:
		return p.Halftime
	case CheckpointQ3:
		return p.Q3
	case CheckpointFinal:
		return p.Final
	}
	return ""
}
