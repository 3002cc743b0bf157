package toml

import "fmt"

const currentSchemaVersion = 1

type stateSchema struct {
	Version        int                   `toml:"version"`
	Network        string                `toml:"network,omitempty"`
	UpdatedAt      string                `toml:"updated_at,omitempty"`
	LedgerDropped  int                   `toml:"ledger_dropped,omitempty"`
	Tokens         []tokenSchema         `toml:"tokens"`
	Rentals        []rentalSchema        `toml:"rentals"`
	PendingReviews []pendingReviewSchema `toml:"pending_reviews"`
	Ledger         []ledgerEntrySchema   `toml:"ledger"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type tokenSchema struct {
	ResourceKey      string            `toml:"resource_key"`
	Specialty        string            `toml:"specialty"`
	DisplayName      string            `toml:"display_name,omitempty"`
	MintAddress      string            `toml:"mint_address"`
	MetadataURI      string            `toml:"metadata_uri,omitempty"`
	Owner            string            `toml:"owner"`
	Listed           bool              `toml:"listed"`
	ListPrice        *float64          `toml:"list_price,omitempty"`
	RentPricePerHour float64           `toml:"rent_price_per_hour"`
	TrainScore       int               `toml:"train_score"`
	UsageCount       int               `toml:"usage_count"`
	ValueScore       float64           `toml:"value_score"`
	TenantID         string            `toml:"tenant_id,omitempty"`
	CreatedAt        string            `toml:"created_at,omitempty"`
	LastTrainedAt    string            `toml:"last_trained_at,omitempty"`
	OwnershipHistory []ownershipSchema `toml:"ownership_history,omitempty"`
}

type ownershipSchema struct {
	Owner  string `toml:"owner"`
	At     string `toml:"at"`
	Reason string `toml:"reason"`
}

type rentalSchema struct {
	ResourceKey       string  `toml:"resource_key"`
	Specialty         string  `toml:"specialty"`
	OwnerAtRentalTime string  `toml:"owner_at_rental_time"`
	Renter            string  `toml:"renter"`
	Hours             int     `toml:"hours"`
	PricePerHour      float64 `toml:"price_per_hour"`
	StartedAt         string  `toml:"started_at"`
	ExpiresAt         string  `toml:"expires_at"`
}

type pendingReviewSchema struct {
	MessageID string `toml:"message_id"`
	Specialty string `toml:"specialty"`
	Requester string `toml:"requester"`
	Question  string `toml:"question"`
	Answer    string `toml:"answer"`
	CreatedAt string `toml:"created_at"`
}

// ledgerEntrySchema keeps the payload as the exact JSON bytes that were hashed.
type ledgerEntrySchema struct {
	Timestamp string `toml:"ts"`
	EventType string `toml:"event"`
	Specialty string `toml:"specialty"`
	Payload   string `toml:"payload"`
	PrevHash  string `toml:"prev_hash"`
	Hash      string `toml:"hash"`
}
