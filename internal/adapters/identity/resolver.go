package identity

import (
	"context"
	"strings"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
)

// Credential keys understood by Resolver.
const (
	KeyActor  = "actor"
	KeyTenant = "tenant"
	KeyRole   = "role"
)

const (
	RoleUser     = "user"
	RoleAdmin    = "admin"
	RoleDisabled = "disabled"
)

// Resolver trusts the actor and tenant it is handed. Callers map transport-specific
// inputs (HTTP headers, CLI flags) onto the credential keys above.
type Resolver struct {
	defaultTenant domain.TenantID
}

var _ ports.IdentityResolver = (*Resolver)(nil)

func NewResolver(defaultTenant domain.TenantID) *Resolver {
	return &Resolver{defaultTenant: domain.NormalizeTenant(defaultTenant)}
}

func (r *Resolver) Resolve(ctx context.Context, credentials map[string]string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	role := strings.ToLower(strings.TrimSpace(credentials[KeyRole]))
	switch role {
	case "":
		role = RoleUser
	case RoleUser, RoleAdmin:
	case RoleDisabled:
		return domain.Identity{}, domain.Authorizationf("identity is disabled")
	default:
		return domain.Identity{}, domain.Validationf("unknown role %q", role)
	}

	tenant := domain.TenantID(strings.TrimSpace(credentials[KeyTenant]))
	if tenant == "" {
		tenant = r.defaultTenant
	}

	return domain.Identity{
		ActorID:  strings.TrimSpace(credentials[KeyActor]),
		TenantID: tenant,
		Role:     role,
	}, nil
}
