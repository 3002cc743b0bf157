package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func rentedFinance(t *testing.T, h *harness) {
	t.Helper()

	h.mint(t, "finance", "alice", "t1")
	_, err := h.market.Rent(context.Background(), RentCommand{Specialty: "finance", Renter: "carol", Tenant: "t1", Hours: 1})
	require.NoError(t, err)
}

func TestFeedbackRenterReviewAcceptedOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	rentedFinance(t, h)

	result, err := h.feedback.RecordInteraction(ctx, InteractionCommand{
		Specialty: "finance",
		Actor:     "carol",
		MessageID: "m1",
		Question:  "How do I budget?",
		Answer:    "Track spending first.",
	})
	require.NoError(t, err)
	assert.Equal(t, InteractionPendingReview, result.Outcome)

	review, ok := h.store.Snapshot().PendingReviews["m1"]
	require.True(t, ok)
	assert.Equal(t, "carol", review.Requester)
	assert.Equal(t, 1, len(h.repo.Stored().PendingReviews))

	h.memory.EXPECT().Commit(mock.Anything, mock.MatchedBy(func(r domain.MemoryRecord) bool {
		return r.MessageID == "m1" && r.ResourceKey == "finance" && r.Question == "How do I budget?" && r.Actor == "carol"
	})).Return(nil).Once()

	rated, err := h.feedback.Rate(ctx, RateCommand{MessageID: "m1", Specialty: "finance", Actor: "carol", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAcceptedSaved, rated.Status)
	require.NotNil(t, rated.Token)
	assert.Equal(t, 1, rated.Token.TrainScore)
	assert.Equal(t, 1, rated.Token.UsageCount)
	assert.Empty(t, h.store.Snapshot().PendingReviews)

	again, err := h.feedback.Rate(ctx, RateCommand{MessageID: "m1", Specialty: "finance", Actor: "carol", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPendingNotFound, again.Status)

	assert.Equal(t, []domain.EventType{domain.EventMint, domain.EventRent, domain.EventTrain}, h.events())
}

func TestFeedbackOwnerCommitsDirectly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.mint(t, "finance", "alice", "t1")

	h.memory.EXPECT().Commit(mock.Anything, mock.MatchedBy(func(r domain.MemoryRecord) bool {
		return r.MessageID == "m2" && r.Actor == "alice"
	})).Return(nil).Once()

	result, err := h.feedback.RecordInteraction(ctx, InteractionCommand{Specialty: "finance", Actor: "alice", MessageID: "m2", Signal: 1})
	require.NoError(t, err)
	assert.Equal(t, InteractionCommitted, result.Outcome)
	require.NotNil(t, result.Token)
	assert.Equal(t, 1, result.Token.UsageCount)
	assert.Empty(t, h.store.Snapshot().PendingReviews)
}

func TestFeedbackUnmintedResourceCommitsWithoutTraining(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.memory.EXPECT().Commit(mock.Anything, mock.Anything).Return(nil).Once()

	result, err := h.feedback.RecordInteraction(context.Background(), InteractionCommand{Specialty: "math", Actor: "bob", MessageID: "m3"})
	require.NoError(t, err)
	assert.Equal(t, InteractionCommitted, result.Outcome)
	assert.Nil(t, result.Token)
	assert.Empty(t, h.events())
}

func TestFeedbackMemoryFailureAbortsInteraction(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mint(t, "finance", "alice", "t1")
	h.memory.EXPECT().Commit(mock.Anything, mock.Anything).Return(errors.New("read-only fs")).Once()

	_, err := h.feedback.RecordInteraction(context.Background(), InteractionCommand{Specialty: "finance", Actor: "alice", MessageID: "m4", Signal: 2})
	require.Error(t, err)
	assert.Zero(t, h.store.Snapshot().Tokens["finance"].UsageCount)
	assert.Equal(t, []domain.EventType{domain.EventMint}, h.events())
}

func TestFeedbackNegativeRatingDiscards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	rentedFinance(t, h)

	_, err := h.feedback.RecordInteraction(ctx, InteractionCommand{Specialty: "finance", Actor: "carol", MessageID: "m1"})
	require.NoError(t, err)

	rated, err := h.feedback.Rate(ctx, RateCommand{MessageID: "m1", Specialty: "finance", Actor: "carol", Value: -1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejectedDiscarded, rated.Status)
	assert.Empty(t, h.store.Snapshot().PendingReviews)

	var payload struct {
		MessageID string `json:"message_id"`
		Reason    string `json:"reason"`
	}
	entry := h.lastEntry(t)
	assert.Equal(t, domain.EventReviewDiscarded, entry.EventType)
	require.NoError(t, entry.DecodePayload(&payload))
	assert.Equal(t, "m1", payload.MessageID)
	assert.Equal(t, string(domain.DiscardNegativeRating), payload.Reason)
}

func TestFeedbackRatingAfterRentalLapseDiscards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	rentedFinance(t, h)

	_, err := h.feedback.RecordInteraction(ctx, InteractionCommand{Specialty: "finance", Actor: "carol", MessageID: "m1"})
	require.NoError(t, err)

	h.clock.Advance(90 * time.Minute)

	rated, err := h.feedback.Rate(ctx, RateCommand{MessageID: "m1", Specialty: "finance", Actor: "carol", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejectedDiscarded, rated.Status)
	assert.Empty(t, h.store.Snapshot().Rentals)

	var payload struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, h.lastEntry(t).DecodePayload(&payload))
	assert.Equal(t, string(domain.DiscardNoControl), payload.Reason)
}

func TestFeedbackRateMismatchKeepsReview(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	rentedFinance(t, h)

	_, err := h.feedback.RecordInteraction(ctx, InteractionCommand{Specialty: "finance", Actor: "carol", MessageID: "m1"})
	require.NoError(t, err)

	tests := []RateCommand{
		{MessageID: "m1", Specialty: "finance", Actor: "mallory", Value: 1},
		{MessageID: "m1", Specialty: "math", Actor: "carol", Value: 1},
		{MessageID: "unknown", Specialty: "finance", Actor: "carol", Value: 1},
	}
	for _, cmd := range tests {
		rated, err := h.feedback.Rate(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, domain.ReviewPendingNotFound, rated.Status)
	}
	assert.Contains(t, h.store.Snapshot().PendingReviews, "m1")

	_, err = h.feedback.Rate(ctx, RateCommand{Specialty: "finance", Actor: "carol", Value: 1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestFeedbackThirdPartyOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		strict      bool
		rented      bool
		wantErr     string
		wantOutcome InteractionOutcome
	}{
		{name: "strict owner lock", strict: true, wantErr: "Strict access: only owner 'alice'"},
		{name: "strict rental lock", strict: true, rented: true, wantErr: "Strict access: this resource is rented by carol"},
		{name: "relaxed rental lock", rented: true, wantErr: "currently rented by carol"},
		{name: "relaxed read only", wantOutcome: InteractionReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, withStrict(tt.strict))
			if tt.rented {
				rentedFinance(t, h)
			} else {
				h.mint(t, "finance", "alice", "t1")
			}

			result, err := h.feedback.RecordInteraction(context.Background(), InteractionCommand{Specialty: "finance", Actor: "bob", MessageID: "m9"})
			if tt.wantErr != "" {
				require.ErrorIs(t, err, domain.ErrAuthorization)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			assert.Empty(t, h.store.Snapshot().PendingReviews)
		})
	}
}
