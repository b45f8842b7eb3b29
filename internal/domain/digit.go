package domain

import (
	"encoding/json"
	"fmt"
)

// Digit is a single decimal digit in [0,9].
type Digit int

// NormalizeDigit coerces arbitrary input into a Digit. The first decimal
// character of the input's textual form wins; anything without one is 0.
func NormalizeDigit(v any) Digit {
	var s string
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		s = t
	case Digit:
		s = fmt.Sprint(int(t))
	default:
		s = fmt.Sprint(t)
	}

	for _, r := range s {
		if r >= '0' && r <= '9' {
			return clampDigit(int(r - '0'))
		}
	}

	return 0
}

func clampDigit(n int) Digit {
	if n < 0 {
		return 0
	}
	if n > 9 {
		return 9
	}
	return Digit(n)
}

// UnmarshalJSON accepts numbers, strings or anything else and normalizes it.
func (d *Digit) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if f, ok := raw.(float64); ok && f >= 0 && f < 10 {
		*d = clampDigit(int(f))
		return nil
	}
	*d = NormalizeDigit(raw)
	return nil
}
