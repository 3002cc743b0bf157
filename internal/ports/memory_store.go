package ports

import (
	"context"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

// MemoryStore is the durable memory interactions are committed to.
type MemoryStore interface {
	Commit(ctx context.Context, record domain.MemoryRecord) error
	List(ctx context.Context, resourceKey string) ([]domain.MemoryRecord, error)
}
