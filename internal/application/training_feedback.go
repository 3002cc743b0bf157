package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
)

// TrainingFeedbackAggregator decides what happens to an interaction: owners commit it to
// memory straight away, renters stage it until they rate it.
type TrainingFeedbackAggregator struct {
	store  *Store
	access *AccessController
	market *MarketplaceService
	memory ports.MemoryStore
}

func NewTrainingFeedbackAggregator(store *Store, access *AccessController, market *MarketplaceService, memory ports.MemoryStore) *TrainingFeedbackAggregator {
	return &TrainingFeedbackAggregator{store: store, access: access, market: market, memory: memory}
}

func (a *TrainingFeedbackAggregator) RecordInteraction(ctx context.Context, cmd InteractionCommand) (InteractionResult, error) {
	actor := strings.TrimSpace(cmd.Actor)
	messageID := strings.TrimSpace(cmd.MessageID)
	if actor == "" {
		return InteractionResult{}, domain.Validationf("actor is required")
	}
	if messageID == "" {
		return InteractionResult{}, domain.Validationf("message id is required")
	}

	result := InteractionResult{MessageID: messageID}
	var control Control
	err := a.store.Update(ctx, func(tx *Tx) error {
		var err error
		control, err = a.access.resolveLocked(ctx, tx, cmd.Specialty, actor)
		if err != nil || !control.HasControl {
			return err
		}

		if control.Role == RoleRenter {
			tx.State.PendingReviews[messageID] = domain.PendingTrainingReview{
				MessageID: messageID,
				Specialty: domain.NormalizeSpecialty(cmd.Specialty),
				Requester: actor,
				Question:  cmd.Question,
				Answer:    cmd.Answer,
				CreatedAt: tx.Now(),
			}
			tx.Touch()
			result.Outcome = InteractionPendingReview
			return nil
		}

		if control.Token != nil {
			token, err := a.market.trainLocked(ctx, tx, TrainCommand{Specialty: cmd.Specialty, Actor: actor, Signal: cmd.Signal})
			if err != nil {
				return err
			}
			result.Token = &token
		}
		if err := a.commit(ctx, control.Key, cmd.Specialty, actor, messageID, cmd.Question, cmd.Answer, tx.Now()); err != nil {
			return err
		}
		result.Outcome = InteractionCommitted
		return nil
	})
	if err != nil {
		return InteractionResult{}, err
	}

	if !control.HasControl {
		switch {
		case a.access.Strict():
			return InteractionResult{}, domain.Authorizationf("%s", denialMessage(control))
		case control.Rental != nil:
			return InteractionResult{}, domain.Authorizationf("This resource is currently rented by %s until %s.",
				control.Rental.Renter, control.Rental.ExpiresAt.Format(time.RFC3339))
		default:
			result.Outcome = InteractionReadOnly
			return result, nil
		}
	}

	if result.Token != nil {
		clone := result.Token.Clone()
		result.Token = &clone
	}
	return result, nil
}

// Rate resolves the pending review for cmd.MessageID. Only a positive rating from the
// requester, while it still controls the resource, commits the staged interaction.
func (a *TrainingFeedbackAggregator) Rate(ctx context.Context, cmd RateCommand) (RateResult, error) {
	messageID := strings.TrimSpace(cmd.MessageID)
	if messageID == "" {
		return RateResult{}, domain.Validationf("message id is required")
	}

	result := RateResult{Status: domain.ReviewPendingNotFound}
	err := a.store.Update(ctx, func(tx *Tx) error {
		review, ok := tx.State.PendingReviews[messageID]
		if !ok || !review.Matches(cmd.Specialty, cmd.Actor) {
			return nil
		}
		delete(tx.State.PendingReviews, messageID)
		tx.Touch()

		if cmd.Value <= 0 {
			result.Status = domain.ReviewRejectedDiscarded
			return discardReview(tx, review, domain.DiscardNegativeRating)
		}

		control, err := a.access.resolveLocked(ctx, tx, review.Specialty, review.Requester)
		if err != nil {
			return err
		}
		if !control.HasControl || control.Token == nil {
			result.Status = domain.ReviewRejectedDiscarded
			return discardReview(tx, review, domain.DiscardNoControl)
		}

		token, err := a.market.trainLocked(ctx, tx, TrainCommand{Specialty: review.Specialty, Actor: review.Requester, Signal: cmd.Value})
		if err != nil {
			return err
		}
		if err := a.commit(ctx, control.Key, review.Specialty, review.Requester, review.MessageID, review.Question, review.Answer, tx.Now()); err != nil {
			return err
		}

		result.Status = domain.ReviewAcceptedSaved
		result.Token = &token
		return nil
	})
	if err != nil {
		return RateResult{}, err
	}

	if result.Token != nil {
		clone := result.Token.Clone()
		result.Token = &clone
	}
	return result, nil
}

func (a *TrainingFeedbackAggregator) commit(ctx context.Context, key, specialty, actor, messageID, question, answer string, now time.Time) error {
	record := domain.MemoryRecord{
		ResourceKey: key,
		Specialty:   domain.NormalizeSpecialty(specialty),
		Actor:       actor,
		MessageID:   messageID,
		Question:    question,
		Answer:      answer,
		CommittedAt: now,
	}
	if err := a.memory.Commit(ctx, record); err != nil {
		return fmt.Errorf("commit interaction %s: %w", messageID, err)
	}
	return nil
}

func discardReview(tx *Tx, review domain.PendingTrainingReview, reason domain.DiscardReason) error {
	log.Warnw("pending review discarded", "message_id", review.MessageID, "requester", review.Requester, "reason", reason)
	return tx.Record(domain.EventReviewDiscarded, review.Specialty, map[string]any{
		"message_id": review.MessageID,
		"requester":  review.Requester,
		"reason":     string(reason),
	})
}
