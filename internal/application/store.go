package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("lm-market")

// Store is the single handle over tokens, rentals, the ledger and staged reviews.
// It holds no lock: callers serialize mutations (one writer per process).
type Store struct {
	repo   ports.StateRepository
	clock  ports.Clock
	ledger *LedgerLog
	state  domain.State
}

func NewStore(ctx context.Context, repo ports.StateRepository, clock ports.Clock, ledger *LedgerLog) (*Store, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ledger == nil {
		ledger = NewLedgerLog(DefaultLedgerRetention)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	state.ApplyDefaults()

	return &Store{repo: repo, clock: clock, ledger: ledger, state: state}, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.State {
	return s.state.Clone()
}

func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Tx is one atomic unit of work over a private copy of the state.
type Tx struct {
	State  *domain.State
	now    time.Time
	ledger *LedgerLog
	dirty  bool
	events []domain.EventType
}

func (tx *Tx) Now() time.Time {
	return tx.now
}

// Record appends one ledger entry to the transaction's state.
func (tx *Tx) Record(event domain.EventType, specialty string, payload any) error {
	if err := tx.ledger.Append(tx.State, tx.now, event, specialty, payload); err != nil {
		return err
	}
	tx.dirty = true
	tx.events = append(tx.events, event)
	return nil
}

// Touch marks a change that carries no ledger entry, such as evicting an expired rental.
func (tx *Tx) Touch() {
	tx.dirty = true
}

// Update runs fn against a copy of the state and, if fn changed anything, persists the
// copy before publishing it. Any error leaves the published state untouched.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.Clone()
	tx := &Tx{State: &working, now: s.clock.Now(), ledger: s.ledger}

	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	working.UpdatedAt = tx.now
	if err := s.repo.Save(ctx, working); err != nil {
		log.Errorw("persist state failed", "events", tx.events, "error", err)
		return fmt.Errorf("save state: %w", err)
	}

	s.state = working
	if len(tx.events) > 0 {
		log.Infow("state persisted", "events", tx.events, "ledger_len", len(working.Ledger))
	}

	return nil
}
