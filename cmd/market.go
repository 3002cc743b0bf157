package cmd

import (
	"errors"
	"fmt"

	marketrender "github.com/bnema/lumiere-ledger/internal/adapters/render/market"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/cobra"
)

func newMarketCmd(app *app, who *identityFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "market",
		Short: "Show tokens listed for sale in the caller's tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			view, err := app.market.Marketplace(cmd.Context(), caller.TenantID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, view)
			}

			rendered, err := app.marketRenderer(view, marketrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render marketplace: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newStateCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show every token, rental, pending review and the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := app.market.State(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, view)
			}

			rendered, err := app.stateRenderer(view, marketrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render state: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newVerifyCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the ledger hash chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, verifyErr := app.market.VerifyChain(cmd.Context())
			if verifyErr != nil && !errors.Is(verifyErr, domain.ErrChainCorrupted) {
				return verifyErr
			}

			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return verifyErr
			}

			rendered, err := app.chainRenderer(report)
			if err != nil {
				return fmt.Errorf("render chain report: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
				return err
			}
			return verifyErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}
