package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/cobra"
)

func newReviewCmd(app *app, who *identityFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Record interactions and rate pending training reviews",
	}

	cmd.AddCommand(
		newReviewInteractCmd(app, who),
		newReviewRateCmd(app, who),
		newReviewMemoryCmd(app, who),
	)

	return cmd
}

func newReviewInteractCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		messageID string
		question  string
		answer    string
		signal    int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "interact <specialty>",
		Short: "Record an answered question against a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}
			if messageID == "" {
				messageID = app.messageID()
			}

			result, err := app.feedback.RecordInteraction(cmd.Context(), application.InteractionCommand{
				Specialty: args[0],
				Actor:     caller.ActorID,
				MessageID: messageID,
				Question:  question,
				Answer:    answer,
				Signal:    signal,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tmessage=%s\n", result.Outcome, result.MessageID)
			return nil
		},
	}

	cmd.Flags().StringVar(&messageID, "message-id", "", "Message id (generated when empty)")
	cmd.Flags().StringVar(&question, "question", "", "Question asked")
	cmd.Flags().StringVar(&answer, "answer", "", "Answer given")
	cmd.Flags().IntVar(&signal, "signal", 1, "Training signal applied when the interaction commits")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}

func newReviewRateCmd(app *app, who *identityFlags) *cobra.Command {
	var (
		specialty string
		value     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "rate <message-id>",
		Short: "Rate a pending interaction; positive ratings train the resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			result, err := app.feedback.Rate(cmd.Context(), application.RateCommand{
				MessageID: args[0],
				Specialty: specialty,
				Actor:     caller.ActorID,
				Value:     value,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&specialty, "specialty", "", "Specialty the interaction was recorded against")
	cmd.Flags().IntVar(&value, "value", 0, "Rating: positive keeps the interaction, zero or negative discards it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	_ = cmd.MarkFlagRequired("specialty")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newReviewMemoryCmd(app *app, who *identityFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "memory <specialty>",
		Short: "List interactions committed to a resource's memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.resolveIdentity(cmd, who)
			if err != nil {
				return err
			}

			records, err := app.memory.List(cmd.Context(), domain.ResourceKey(args[0], caller.ActorID))
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "memory: none")
				return nil
			}
			for _, record := range records {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					record.CommittedAt.Format(time.RFC3339), record.MessageID, record.Actor, record.Question)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")

	return cmd
}
