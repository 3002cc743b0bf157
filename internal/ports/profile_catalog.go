package ports

import (
	"context"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

type ProfileCatalog interface {
	// Profile returns domain.ErrUnknownProfile when the specialty has no responder.
	Profile(ctx context.Context, specialty string) (domain.ResourceProfile, error)
	List(ctx context.Context) ([]domain.ResourceProfile, error)
}
