package ports

import (
	"context"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, credentials map[string]string) (domain.Identity, error)
}
