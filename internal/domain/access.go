package domain

import "errors"

var (
	ErrBoardLocked = errors.New("board is locked")
	ErrNotAdmin    = errors.New("admin access required")
)

// Access is the caller's position in the {Open, Locked} x {Authenticated,
// Anonymous} state machine. GateRequired is false only in the local variant
// with the passcode gate switched off.
type Access struct {
	GateRequired  bool
	Authenticated bool
	Locked        bool
}

func (a Access) IsAdmin() bool {
	return !a.GateRequired || a.Authenticated
}

// CanConfigure covers settings and the lock toggle itself.
func (a Access) CanConfigure() error {
	if !a.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// CanEditBoard covers cells, scoreboard, reveals and permutations.
func (a Access) CanEditBoard() error {
	if !a.IsAdmin() {
		return ErrNotAdmin
	}
	if a.Locked {
		return ErrBoardLocked
	}
	return nil
}
