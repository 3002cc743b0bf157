package memory

import (
	"context"
	"sync"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

// Repository keeps the state blob in process memory. It backs ephemeral runs and tests.
type Repository struct {
	mu      sync.Mutex
	state   domain.State
	saves   int
	saveErr error
}

func NewRepository() *Repository {
	return &Repository{state: domain.NewState()}
}

// NewRepositoryWithState seeds the repository, as if state had been saved earlier.
func NewRepositoryWithState(state domain.State) *Repository {
	return &Repository{state: state.Clone()}
}

func (r *Repository) Load(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone(), nil
}

func (r *Repository) Save(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.state = state.Clone()
	r.saves++
	return nil
}

// FailSaves makes every following Save return err. A nil err restores normal saves.
func (r *Repository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// Saves counts successful saves.
func (r *Repository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Stored returns a copy of the last saved state.
func (r *Repository) Stored() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}
