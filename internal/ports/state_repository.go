package ports

import (
	"context"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

// StateRepository is the persistence backend: the full state is loaded and saved as one blob.
type StateRepository interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}
