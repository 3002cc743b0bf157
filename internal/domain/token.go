package domain

import (
	"math"
	"time"
)

const (
	DefaultRentPricePerHour = 0.05

	metadataURIPrefix = "mock://lumiere/"
)

type OwnershipReason string

const (
	OwnershipReasonMint       OwnershipReason = "mint"
	OwnershipReasonBuy        OwnershipReason = "buy"
	OwnershipReasonFirstClaim OwnershipReason = "first_claim"
)

type OwnershipRecord struct {
	Owner  string          `json:"owner"`
	At     time.Time       `json:"at"`
	Reason OwnershipReason `json:"reason"`
}

// Token is the ownership record of one resource. Tokens are mutated, never deleted.
type Token struct {
	ResourceKey      string            `json:"resource_key"`
	Specialty        string            `json:"specialty"`
	DisplayName      string            `json:"display_name"`
	MintAddress      string            `json:"mint_address"`
	MetadataURI      string            `json:"metadata_uri"`
	Owner            string            `json:"owner"`
	OwnershipHistory []OwnershipRecord `json:"ownership_history"`
	Listed           bool              `json:"listed"`
	ListPrice        *float64          `json:"list_price,omitempty"`
	RentPricePerHour float64           `json:"rent_price_per_hour"`
	TrainScore       int               `json:"train_score"`
	UsageCount       int               `json:"usage_count"`
	ValueScore       float64           `json:"value_score"`
	TenantID         TenantID          `json:"tenant_id"`
	CreatedAt        time.Time         `json:"created_at"`
	LastTrainedAt    time.Time         `json:"last_trained_at"`
}

// NewToken mints a fresh token for profile under key.
func NewToken(key string, profile ResourceProfile, owner string, tenant TenantID, mintAddress string, now time.Time) Token {
	specialty := NormalizeSpecialty(profile.Specialty)

	return Token{
		ResourceKey:      key,
		Specialty:        specialty,
		DisplayName:      profile.DisplayName,
		MintAddress:      mintAddress,
		MetadataURI:      metadataURIPrefix + specialty,
		Owner:            owner,
		OwnershipHistory: []OwnershipRecord{{Owner: owner, At: now, Reason: OwnershipReasonMint}},
		RentPricePerHour: DefaultRentPricePerHour,
		ValueScore:       profile.SeedValueScore(),
		TenantID:         tenant,
		CreatedAt:        now,
	}
}

func (t Token) VisibleTo(tenant TenantID) bool {
	return NormalizeTenant(t.TenantID) == NormalizeTenant(tenant)
}

func (t *Token) TransferTo(owner string, reason OwnershipReason, now time.Time) {
	t.OwnershipHistory = append(t.OwnershipHistory, OwnershipRecord{Owner: owner, At: now, Reason: reason})
	t.Owner = owner
}

func (t *Token) AddValue(delta float64) {
	t.ValueScore = RoundScore(t.ValueScore + delta)
}

func (t Token) Clone() Token {
	clone := t
	clone.OwnershipHistory = append([]OwnershipRecord(nil), t.OwnershipHistory...)
	if t.ListPrice != nil {
		price := *t.ListPrice
		clone.ListPrice = &price
	}
	return clone
}

// RoundScore keeps value scores at three decimals.
func RoundScore(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// RoundPrice keeps prices at four decimals.
func RoundPrice(v float64) float64 {
	return math.Round(v*10000) / 10000
}
