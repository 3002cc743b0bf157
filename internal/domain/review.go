package domain

import (
	"strings"
	"time"
)

type ReviewStatus string

const (
	ReviewAcceptedSaved     ReviewStatus = "accepted_saved"
	ReviewRejectedDiscarded ReviewStatus = "rejected_discarded"
	ReviewPendingNotFound   ReviewStatus = "pending_not_found"
)

type DiscardReason string

const (
	DiscardNegativeRating DiscardReason = "negative_rating"
	DiscardNoControl      DiscardReason = "no_control"
)

// PendingTrainingReview stages a renter's interaction until its rating decides whether it is kept.
type PendingTrainingReview struct {
	MessageID string    `json:"message_id"`
	Specialty string    `json:"specialty"`
	Requester string    `json:"requester"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Matches reports whether a rating call for specialty by requester may resolve this review.
func (r PendingTrainingReview) Matches(specialty, requester string) bool {
	if NormalizeSpecialty(specialty) != NormalizeSpecialty(r.Specialty) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(requester), strings.TrimSpace(r.Requester))
}

// MemoryRecord is one interaction committed to a resource's durable memory.
type MemoryRecord struct {
	ResourceKey string    `json:"resource_key"`
	Specialty   string    `json:"specialty"`
	Actor       string    `json:"actor"`
	MessageID   string    `json:"message_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	CommittedAt time.Time `json:"committed_at"`
}
