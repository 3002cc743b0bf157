package domain

import "strings"

const DefaultTenant TenantID = "default"

type TenantID string

func NormalizeTenant(tenant TenantID) TenantID {
	trimmed := strings.TrimSpace(string(tenant))
	if trimmed == "" {
		return DefaultTenant
	}
	return TenantID(trimmed)
}

// Identity is what an IdentityResolver yields for a request.
type Identity struct {
	ActorID  string   `json:"actor_id"`
	TenantID TenantID `json:"tenant_id"`
	Role     string   `json:"role"`
}
