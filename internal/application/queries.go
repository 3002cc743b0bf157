package application

import (
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

const marketplaceRecentEvents = 12

type ListedToken struct {
	ResourceKey string          `json:"resource_key"`
	Specialty   string          `json:"specialty"`
	DisplayName string          `json:"display_name"`
	Owner       string          `json:"owner"`
	Price       *float64        `json:"price,omitempty"`
	MintAddress string          `json:"mint_address"`
	ValueScore  float64         `json:"value_score"`
	TenantID    domain.TenantID `json:"tenant_id"`
}

type MarketplaceView struct {
	Network      string               `json:"network"`
	Tenant       domain.TenantID      `json:"tenant"`
	Listed       []ListedToken        `json:"listed"`
	RecentEvents []domain.LedgerEntry `json:"recent_events"`
}

type StateView struct {
	Network        string                                  `json:"network"`
	Tokens         map[string]domain.Token                 `json:"tokens"`
	Rentals        map[string]domain.Rental                `json:"rentals"`
	PendingReviews map[string]domain.PendingTrainingReview `json:"pending_reviews"`
	Ledger         []domain.LedgerEntry                    `json:"ledger"`
	LedgerDropped  int                                     `json:"ledger_dropped"`
	UpdatedAt      time.Time                               `json:"updated_at"`
}

type RentResult struct {
	Rental domain.Rental `json:"rental"`
	Token  domain.Token  `json:"token"`
}

type InteractionOutcome string

const (
	InteractionCommitted     InteractionOutcome = "committed"
	InteractionPendingReview InteractionOutcome = "pending_review"
	InteractionReadOnly      InteractionOutcome = "read_only"
)

type InteractionResult struct {
	Outcome   InteractionOutcome `json:"outcome"`
	MessageID string             `json:"message_id"`
	Token     *domain.Token      `json:"token,omitempty"`
}

type RateResult struct {
	Status domain.ReviewStatus `json:"status"`
	Token  *domain.Token       `json:"token,omitempty"`
}

// ChainReport is the verify_chain answer.
type ChainReport struct {
	OK        bool   `json:"ok"`
	Entries   int    `json:"entries"`
	Truncated bool   `json:"truncated"`
	Error     string `json:"error,omitempty"`
}
