package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
)

// Minter creates tokens inside a transaction. Both the marketplace and the lazy
// personal mint in access checks go through it.
type Minter struct {
	profiles  ports.ProfileCatalog
	addresses func() (string, error)
}

func NewMinter(profiles ports.ProfileCatalog, addresses func() (string, error)) *Minter {
	if addresses == nil {
		addresses = domain.NewMintAddress
	}
	return &Minter{profiles: profiles, addresses: addresses}
}

// mint returns the token at key(specialty, owner), creating it when absent.
func (m *Minter) mint(ctx context.Context, tx *Tx, specialty, owner string, tenant domain.TenantID) (domain.Token, error) {
	key := domain.ResourceKey(specialty, owner)
	if token, ok := tx.State.Tokens[key]; ok {
		if strings.TrimSpace(string(token.TenantID)) == "" && strings.TrimSpace(string(tenant)) != "" {
			token.TenantID = domain.NormalizeTenant(tenant)
			tx.State.Tokens[key] = token
			if err := tx.Record(domain.EventMint, token.Specialty, map[string]any{
				"owner":        token.Owner,
				"mint_address": token.MintAddress,
				"tenant_id":    string(token.TenantID),
			}); err != nil {
				return domain.Token{}, err
			}
		}
		return token, nil
	}

	slug := domain.NormalizeSpecialty(specialty)
	profile, err := m.profiles.Profile(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProfile) {
			return domain.Token{}, domain.NotFoundf("unknown resource specialty %q", slug)
		}
		return domain.Token{}, fmt.Errorf("load resource profile: %w", err)
	}

	address, err := m.addresses()
	if err != nil {
		return domain.Token{}, fmt.Errorf("generate mint address: %w", err)
	}

	token := domain.NewToken(key, profile, owner, tenant, address, tx.Now())
	tx.State.Tokens[key] = token

	if err := tx.Record(domain.EventMint, slug, map[string]any{
		"owner":        owner,
		"mint_address": address,
	}); err != nil {
		return domain.Token{}, err
	}

	return token, nil
}
