package domain

import (
	"sort"
	"time"
)

const Network = "solana-devnet-mock"

// State is the full persisted blob: tokens, rentals and the ledger, plus staged reviews.
type State struct {
	Tokens         map[string]Token
	Rentals        map[string]Rental
	Ledger         []LedgerEntry
	LedgerDropped  int
	PendingReviews map[string]PendingTrainingReview
	UpdatedAt      time.Time
}

func NewState() State {
	return State{
		Tokens:         map[string]Token{},
		Rentals:        map[string]Rental{},
		PendingReviews: map[string]PendingTrainingReview{},
	}
}

// ApplyDefaults fills in collections and per-record defaults after a load.
func (s *State) ApplyDefaults() {
	if s.Tokens == nil {
		s.Tokens = map[string]Token{}
	}
	if s.Rentals == nil {
		s.Rentals = map[string]Rental{}
	}
	if s.PendingReviews == nil {
		s.PendingReviews = map[string]PendingTrainingReview{}
	}

	for key, token := range s.Tokens {
		if token.ResourceKey == "" {
			token.ResourceKey = key
		}
		if token.Specialty == "" {
			token.Specialty = NormalizeSpecialty(key)
		}
		if token.MetadataURI == "" {
			token.MetadataURI = metadataURIPrefix + token.Specialty
		}
		if token.RentPricePerHour <= 0 {
			token.RentPricePerHour = DefaultRentPricePerHour
		}
		if token.ValueScore <= 0 {
			token.ValueScore = 1
		}
		if token.TrainScore < 0 {
			token.TrainScore = 0
		}
		if token.UsageCount < 0 {
			token.UsageCount = 0
		}
		s.Tokens[key] = token
	}

	for key, rental := range s.Rentals {
		if rental.ResourceKey == "" {
			rental.ResourceKey = key
			s.Rentals[key] = rental
		}
	}
}

func (s State) Clone() State {
	clone := State{
		Tokens:         make(map[string]Token, len(s.Tokens)),
		Rentals:        make(map[string]Rental, len(s.Rentals)),
		Ledger:         append([]LedgerEntry(nil), s.Ledger...),
		LedgerDropped:  s.LedgerDropped,
		PendingReviews: make(map[string]PendingTrainingReview, len(s.PendingReviews)),
		UpdatedAt:      s.UpdatedAt,
	}
	for key, token := range s.Tokens {
		clone.Tokens[key] = token.Clone()
	}
	for key, rental := range s.Rentals {
		clone.Rentals[key] = rental
	}
	for key, review := range s.PendingReviews {
		clone.PendingReviews[key] = review
	}
	return clone
}

// TokenKeys returns token keys in a stable order so marketplace scans are deterministic.
func (s State) TokenKeys() []string {
	keys := make([]string, 0, len(s.Tokens))
	for key := range s.Tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FindListed returns the first listed token of specialty visible to tenant.
func (s State) FindListed(specialty string, tenant TenantID) (Token, bool) {
	slug := NormalizeSpecialty(specialty)
	for _, key := range s.TokenKeys() {
		token := s.Tokens[key]
		if !token.Listed || !token.VisibleTo(tenant) {
			continue
		}
		if NormalizeSpecialty(token.Specialty) == slug {
			return token, true
		}
	}
	return Token{}, false
}

// ActiveRental returns the rental under key unless it has expired at now.
func (s State) ActiveRental(key string, now time.Time) (Rental, bool) {
	rental, ok := s.Rentals[key]
	if !ok || rental.Expired(now) {
		return Rental{}, false
	}
	return rental, true
}

// LedgerTail returns up to n most recent entries, oldest first.
func (s State) LedgerTail(n int) []LedgerEntry {
	if n <= 0 || n >= len(s.Ledger) {
		return append([]LedgerEntry(nil), s.Ledger...)
	}
	return append([]LedgerEntry(nil), s.Ledger[len(s.Ledger)-n:]...)
}
