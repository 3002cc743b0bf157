package cmd

import (
	"fmt"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/cobra"
)

type accessReport struct {
	ResourceKey string           `json:"resource_key"`
	Role        application.Role `json:"role"`
	HasControl  bool             `json:"has_control"`
	Owner       string           `json:"owner,omitempty"`
	RentalLock  *domain.Rental   `json:"rental_lock,omitempty"`
	StrictBlock string           `json:"strict_block,omitempty"`
}

func newAccessCmd(app *app, who *identityFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "access <specialty>",
		Short: "Show whether the actor controls a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			control, err := app.access.Resolve(cmd.Context(), args[0], caller.ActorID)
			if err != nil {
				return err
			}
			lock, err := app.access.RentalLock(cmd.Context(), args[0], caller.ActorID)
			if err != nil {
				return err
			}
			block, err := app.access.StrictBlock(cmd.Context(), args[0], caller.ActorID)
			if err != nil {
				return err
			}

			report := accessReport{
				ResourceKey: control.Key,
				Role:        control.Role,
				HasControl:  control.HasControl,
				RentalLock:  lock,
				StrictBlock: block,
			}
			if control.Token != nil {
				report.Owner = control.Token.Owner
			}

			if asJSON {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "resource: %s\n", report.ResourceKey)
			_, _ = fmt.Fprintf(out, "control: %t (%s)\n", report.HasControl, report.Role)
			_, _ = fmt.Fprintf(out, "strict: %t\n", app.access.Strict())
			_, _ = fmt.Fprintf(out, "rental lock: %s\n", rentalSummary(lock))
			if block != "" {
				_, _ = fmt.Fprintln(out, block)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}
