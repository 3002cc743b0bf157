package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/lumiere-ledger/internal/adapters/identity"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/cobra"
)

func (a *app) resolveIdentity(cmd *cobra.Command, who *identityFlags) (domain.Identity, error) {
	resolved, err := a.identity.Resolve(cmd.Context(), map[string]string{
		identity.KeyActor:  who.actor,
		identity.KeyTenant: who.tenant,
		identity.KeyRole:   who.role,
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return resolved, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func formatTokenLine(token domain.Token) string {
	price := "-"
	if token.ListPrice != nil {
		price = fmt.Sprintf("%.4f", *token.ListPrice)
	}
	return fmt.Sprintf("%s\towner=%s\tlisted=%t\tprice=%s\tvalue=%.3f\tmint=%s",
		token.ResourceKey, token.Owner, token.Listed, price, token.ValueScore, token.MintAddress)
}
