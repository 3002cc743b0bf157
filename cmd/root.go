package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

// identityFlags are the caller identity every command acts as.
type identityFlags struct {
	actor  string
	tenant string
	role   string
}

func newRootCmd() *cobra.Command {
	who := &identityFlags{}

	rootCmd := &cobra.Command{
		Use:           "lm",
		Short:         "Lumiere ledger (lm): tokenized resource ownership, rentals and training review",
		Long:          "lm manages the Lumiere marketplace: mint and trade ownership tokens for responder specialties, rent them for a few hours, review renter interactions before they train a resource, and verify the hash-chained ledger.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&who.actor, "actor", "", "Actor id to act as")
	rootCmd.PersistentFlags().StringVar(&who.tenant, "tenant", "", "Tenant id (defaults to tenant.default)")
	rootCmd.PersistentFlags().StringVar(&who.role, "role", "", "Actor role: user, admin or disabled")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newTokenCmd(app, who),
		newAccessCmd(app, who),
		newMarketCmd(app, who),
		newStateCmd(app),
		newVerifyCmd(app),
		newReviewCmd(app, who),
		newServeCmd(app),
	)

	return rootCmd
}
