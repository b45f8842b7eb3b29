package domain

import "math/rand"

const AxisSize = 10

// Permutation is the ordering of the digits 0-9 along one grid axis. A
// persisted permutation may be partial or corrupt, so it is a slice and not
// an array.
type Permutation []Digit

func IdentityPermutation() Permutation {
	p := make(Permutation, AxisSize)
	for i := range p {
		p[i] = Digit(i)
	}
	return p
}

// ShufflePermutation returns a uniformly random permutation of 0-9. A nil rng
// uses the global source.
func ShufflePermutation(rng *rand.Rand) Permutation {
	p := IdentityPermutation()
	swap := func(i, j int) { p[i], p[j] = p[j], p[i] }
	if rng == nil {
		rand.Shuffle(len(p), swap)
	} else {
		rng.Shuffle(len(p), swap)
	}
	return p
}

// IndexOf returns the position of d, or -1.
func (p Permutation) IndexOf(d Digit) int {
	for i, v := range p {
		if v == d {
			return i
		}
	}
	return -1
}

func (p Permutation) IsBijection() bool {
	if len(p) != AxisSize {
		return false
	}
	var seen [AxisSize]bool
	for _, v := range p {
		if v < 0 || v > 9 || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func (p Permutation) Clone() Permutation {
	if p == nil {
		return nil
	}
	out := make(Permutation, len(p))
	copy(out, p)
	return out
}

func (p Permutation) Equal(o Permutation) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Numbers holds the two axis permutations. Top is team A, left is team B.
type Numbers struct {
	Top        Permutation `json:"top"`
	Left       Permutation `json:"left"`
	Randomized bool        `json:"randomized"`
}

func DefaultNumbers() Numbers {
	return Numbers{
		Top:  IdentityPermutation(),
		Left: IdentityPermutation(),
	}
}

// Draw shuffles both axes independently.
func (n *Numbers) Draw(rng *rand.Rand) {
	n.Top = ShufflePermutation(rng)
	n.Left = ShufflePermutation(rng)
	n.Randomized = true
}

func (n *Numbers) Reset() {
	*n = DefaultNumbers()
}

func (n Numbers) Clone() Numbers {
	return Numbers{Top: n.Top.Clone(), Left: n.Left.Clone(), Randomized: n.Randomized}
}

func (n Numbers) Equal(o Numbers) bool {
	return n.Randomized == o.Randomized && n.Top.Equal(o.Top) && n.Left.Equal(o.Left)
}
