package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/metrics"
)

var (
	ErrBoardLocked       = domain.ErrBoardLocked
	ErrNotAdmin          = domain.ErrNotAdmin
	ErrInvalidCoord      = domain.ErrInvalidCoord
	ErrUnknownCheckpoint = domain.ErrUnknownCheckpoint

	ErrInvalidImport    = errors.New("import failed")
	ErrPersistence      = errors.New("board could not be saved")
	ErrGateUnavailable  = errors.New("the passcode gate is not used with accounts")
	ErrPasscodeRequired = errors.New("a passcode is required to enable the gate")
)

// StateStore holds one serialized fundraiser. Load returns nil, nil when
// nothing was saved yet.
type StateStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// ChangeSource reports snapshots written by other processes or instances.
type ChangeSource interface {
	Subscribe(ctx context.Context, onChange func([]byte)) (func(), error)
}

// Settings patches configuration groups. A nil group is left as is.
type Settings struct {
	Meta        *domain.Meta
	Teams       *domain.Teams
	Rules       *domain.Rules
	Payouts     *domain.Payouts
	Fundraising *domain.Fundraising
}

type FundraiserService struct {
	store   StateStore
	changes ChangeSource
	policy  *AdminPolicy
	metrics *metrics.Metrics
	now     func() time.Time
	rng     *rand.Rand

	// writeMu orders mutations end to end, including the store write, so
	// snapshots reach the store in the order they were applied.
	writeMu sync.Mutex

	mu          sync.RWMutex
	current     domain.Fundraiser
	listeners   []func(domain.Fundraiser)
	unsubscribe func()
}

type Option func(*FundraiserService)

func WithClock(now func() time.Time) Option {
	return func(s *FundraiserService) {
		s.now = now
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *FundraiserService) {
		s.rng = rng
	}
}

// WithChangeSource subscribes the service to external snapshots on Start.
func WithChangeSource(src ChangeSource) Option {
	return func(s *FundraiserService) {
		s.changes = src
	}
}

func NewFundraiserService(store StateStore, policy *AdminPolicy, m *metrics.Metrics, opts ...Option) *FundraiserService {
	s := &FundraiserService{
		store:   store,
		policy:  policy,
		metrics: m,
		now:     time.Now,
		current: domain.DefaultFundraiser(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the persisted board and begins following external changes.
// A failed or malformed load leaves the defaults in place.
func (s *FundraiserService) Start(ctx context.Context) {
	raw, err := s.store.Load(ctx)
	if err != nil {
		zap.L().Warn("loading fundraiser failed, using defaults", zap.Error(err))
	}

	f, err := domain.DecodeMerged(raw)
	if err != nil {
		zap.L().Warn("stored fundraiser is malformed, using defaults", zap.Error(err))
	}

	s.mu.Lock()
	s.current = f
	s.mu.Unlock()

	if s.changes == nil {
		return
	}

	unsubscribe, err := s.changes.Subscribe(ctx, s.applyExternal)
	if err != nil {
		zap.L().Warn("subscribing to fundraiser changes failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

func (s *FundraiserService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// OnChange registers fn to receive every new board state.
func (s *FundraiserService) OnChange(fn func(domain.Fundraiser)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

func (s *FundraiserService) Snapshot() domain.Fundraiser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Clone()
}

func (s *FundraiserService) Access(id domain.Identity) domain.Access {
	return s.policy.Access(id, s.Snapshot())
}

func (s *FundraiserService) PublicView() domain.PublicView {
	return domain.NewPublicView(s.Snapshot())
}

func (s *FundraiserService) AdminView(id domain.Identity) (domain.AdminView, error) {
	f := s.Snapshot()
	if err := s.policy.Access(id, f).CanConfigure(); err != nil {
		return domain.AdminView{}, err
	}

	return domain.NewAdminView(f), nil
}

func (s *FundraiserService) SetCell(ctx context.Context, id domain.Identity, c domain.Coord, name string) (domain.Fundraiser, error) {
	if !c.Valid() {
		return domain.Fundraiser{}, ErrInvalidCoord
	}

	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Grid[c] = domain.Cell{Name: strings.TrimSpace(name)}
		return nil
	})
}

func (s *FundraiserService) ClearCell(ctx context.Context, id domain.Identity, c domain.Coord) (domain.Fundraiser, error) {
	return s.SetCell(ctx, id, c, "")
}

func (s *FundraiserService) ClearCells(ctx context.Context, id domain.Identity) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Grid.Clear()
		return nil
	})
}

// SetScore takes each team's last digit in any form the digit normalizer
// accepts: "7", 7, "" or nil.
func (s *FundraiserService) SetScore(ctx context.Context, id domain.Identity, c domain.Checkpoint, teamA, teamB any) (domain.Fundraiser, error) {
	if _, err := domain.ParseCheckpoint(string(c)); err != nil {
		return domain.Fundraiser{}, err
	}

	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Scoreboard.TeamA.Set(c, teamA)
		f.Scoreboard.TeamB.Set(c, teamB)
		return nil
	})
}

func (s *FundraiserService) SetReveal(ctx context.Context, id domain.Identity, c domain.Checkpoint, revealed bool) (domain.Fundraiser, error) {
	if _, err := domain.ParseCheckpoint(string(c)); err != nil {
		return domain.Fundraiser{}, err
	}

	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Reveals.Set(c, revealed)
		return nil
	})
}

func (s *FundraiserService) DrawNumbers(ctx context.Context, id domain.Identity) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Numbers.Draw(s.rng)
		return nil
	})
}

func (s *FundraiserService) ResetNumbers(ctx context.Context, id domain.Identity) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		f.Numbers.Reset()
		return nil
	})
}

func (s *FundraiserService) UpdateSettings(ctx context.Context, id domain.Identity, patch Settings) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanConfigure, func(f *domain.Fundraiser) error {
		if patch.Meta != nil {
			f.Meta = *patch.Meta
		}
		if patch.Teams != nil {
			f.Teams = *patch.Teams
		}
		if patch.Rules != nil {
			// An absent list is stored as empty, not null, so it survives a reload.
			bullets := slices.Clone(patch.Rules.Bullets)
			if bullets == nil {
				bullets = []string{}
			}
			f.Rules = domain.Rules{
				Bullets: bullets,
				Notes:   patch.Rules.Notes,
			}
		}
		if patch.Payouts != nil {
			f.Payouts = *patch.Payouts
		}
		if patch.Fundraising != nil {
			f.Fundraising = *patch.Fundraising
		}
		return nil
	})
}

// SetLock stays reachable while locked, otherwise a locked board could
// never be reopened.
func (s *FundraiserService) SetLock(ctx context.Context, id domain.Identity, locked bool) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanConfigure, func(f *domain.Fundraiser) error {
		f.UI.LockedBoard = locked
		return nil
	})
}

// SetGate switches the passcode gate. Any change invalidates passcode tokens
// issued so far, including the caller's.
func (s *FundraiserService) SetGate(ctx context.Context, id domain.Identity, enabled bool, passcode string) (domain.Fundraiser, error) {
	if s.policy.AccountsMode() {
		return domain.Fundraiser{}, ErrGateUnavailable
	}
	if enabled && passcode == "" {
		return domain.Fundraiser{}, ErrPasscodeRequired
	}

	return s.mutate(ctx, id, domain.Access.CanConfigure, func(f *domain.Fundraiser) error {
		f.SetGate(enabled, passcode)
		return nil
	})
}

// Replace swaps in a whole document merged onto the defaults. The gate
// configuration is kept; it only changes through SetGate. On a locked board
// the cells, scores, reveals and numbers must be unchanged.
func (s *FundraiserService) Replace(ctx context.Context, id domain.Identity, raw []byte) (domain.Fundraiser, error) {
	incoming, err := domain.DecodeMerged(raw)
	if err != nil {
		return domain.Fundraiser{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	return s.mutate(ctx, id, domain.Access.CanConfigure, func(f *domain.Fundraiser) error {
		if f.UI.LockedBoard && !f.BoardContentEqual(incoming) {
			return ErrBoardLocked
		}

		incoming.Admin = f.Admin
		*f = incoming
		return nil
	})
}

// Export returns the whole aggregate as the persisted document.
func (s *FundraiserService) Export(id domain.Identity) ([]byte, error) {
	f := s.Snapshot()
	if err := s.policy.Access(id, f).CanConfigure(); err != nil {
		return nil, err
	}

	stamp := f.UpdatedAt
	if stamp.IsZero() {
		stamp = s.now()
	}

	doc, err := domain.Serialize(f, stamp)
	if err != nil {
		return nil, fmt.Errorf("domain.Serialize -> %w", err)
	}

	return doc, nil
}

// Reset restores the defaults but keeps the gate, so a reset never opens
// the board to anonymous editing.
func (s *FundraiserService) Reset(ctx context.Context, id domain.Identity) (domain.Fundraiser, error) {
	return s.mutate(ctx, id, domain.Access.CanEditBoard, func(f *domain.Fundraiser) error {
		admin := f.Admin
		*f = domain.DefaultFundraiser()
		f.Admin = admin
		return nil
	})
}

// mutate applies fn to a copy of the board, swaps the copy in and writes
// the snapshot. The new state stays live even when the write fails.
func (s *FundraiserService) mutate(ctx context.Context, id domain.Identity, guard func(domain.Access) error, fn func(*domain.Fundraiser) error) (domain.Fundraiser, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Snapshot()
	if err := guard(s.policy.Access(id, next)); err != nil {
		return domain.Fundraiser{}, err
	}
	if err := fn(&next); err != nil {
		return domain.Fundraiser{}, err
	}
	next.UpdatedAt = s.now().UTC()

	s.swap(next)

	doc, err := domain.Serialize(next, next.UpdatedAt)
	if err != nil {
		return next, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err = s.store.Save(ctx, doc); err != nil {
		s.metrics.Saves.WithLabelValues(metrics.ResultError).Inc()
		zap.L().Error("saving fundraiser failed", zap.Error(err))

		return next, fmt.Errorf("%w: s.store.Save -> %w", ErrPersistence, err)
	}
	s.metrics.Saves.WithLabelValues(metrics.ResultOK).Inc()

	return next, nil
}

// applyExternal handles a snapshot from the change source. Echoes of our own
// writes carry the same updatedAt and are dropped.
func (s *FundraiserService) applyExternal(raw []byte) {
	f, err := domain.DecodeMerged(raw)
	if err != nil {
		zap.L().Warn("ignoring malformed fundraiser change", zap.Error(err))
		return
	}

	s.mu.RLock()
	same := f.UpdatedAt.Equal(s.current.UpdatedAt)
	s.mu.RUnlock()
	if same {
		return
	}

	s.metrics.StoreChanges.Inc()
	s.swap(f)
}

func (s *FundraiserService) swap(f domain.Fundraiser) {
	s.mu.Lock()
	s.current = f.Clone()
	listeners := append(([]func(domain.Fundraiser))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(f.Clone())
	}
}
