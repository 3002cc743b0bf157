package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/cobra"
)

func newTokenCmd(app *app, who *identityFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint, trade, rent and train ownership tokens",
	}

	cmd.AddCommand(
		newTokenMintCmd(app, who),
		newTokenListCmd(app, who),
		newTokenBuyCmd(app, who),
		newTokenRentCmd(app, who),
		newTokenTrainCmd(app, who),
	)

	return cmd
}

func newTokenMintCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		owner  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "mint <specialty>",
		Short: "Mint the token for a specialty (returns the existing one when already minted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}
			if owner == "" {
				owner = caller.ActorID
			}

			token, err := app.market.Mint(cmd.Context(), application.MintCommand{
				Specialty: args[0],
				Owner:     owner,
				Tenant:    caller.TenantID,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, token)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Minted %s\n", formatTokenLine(token))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the new token (defaults to --actor)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newTokenListCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		price  float64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list <specialty>",
		Short: "List a token you own for sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			token, err := app.market.List(cmd.Context(), application.ListCommand{
				Specialty: args[0],
				Seller:    caller.ActorID,
				Tenant:    caller.TenantID,
				Price:     price,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, token)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Listed %s\n", formatTokenLine(token))
			return nil
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "Asking price")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newTokenBuyCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		seller string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "buy <specialty>",
		Short: "Buy a listed token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			token, err := app.market.Buy(cmd.Context(), application.BuyCommand{
				Specialty:  args[0],
				Buyer:      caller.ActorID,
				Tenant:     caller.TenantID,
				SellerHint: seller,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, token)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Bought %s\n", formatTokenLine(token))
			return nil
		},
	}

	cmd.Flags().StringVar(&seller, "seller", "", "Seller whose personal listing to buy")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newTokenRentCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		hours  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rent <specialty>",
		Short: "Rent exclusive use of a resource for a number of hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			result, err := app.market.Rent(cmd.Context(), application.RentCommand{
				Specialty: args[0],
				Renter:    caller.ActorID,
				Tenant:    caller.TenantID,
				Hours:     hours,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Rented %s to %s until %s\n",
				result.Rental.ResourceKey, result.Rental.Renter, result.Rental.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 1, "Rental duration in hours")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newTokenTrainCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		signal int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "train <specialty>",
		Short: "Record a training signal on a resource you control",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			token, err := app.market.Train(cmd.Context(), application.TrainCommand{
				Specialty: args[0],
				Actor:     caller.ActorID,
				Signal:    signal,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, token)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Trained %s\ttrain_score=%d\tusage=%d\n",
				formatTokenLine(token), token.TrainScore, token.UsageCount)
			return nil
		},
	}

	cmd.Flags().IntVar(&signal, "signal", 1, "Training signal (negative values count as zero)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func rentalSummary(rental *domain.Rental) string {
	if rental == nil {
		return "none"
	}
	return fmt.Sprintf("%s until %s", rental.Renter, rental.ExpiresAt.Format(time.RFC3339))
}
