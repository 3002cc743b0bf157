package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const GenesisHash = "genesis"

type EventType string

const (
	EventMint            EventType = "mint"
	EventList            EventType = "list"
	EventTransfer        EventType = "transfer"
	EventRent            EventType = "rent"
	EventTrain           EventType = "train"
	EventClaimOwner      EventType = "claim_owner"
	EventReviewDiscarded EventType = "review_discarded"
)

// LedgerEntry is one link of the hash chain. Hash covers every other field.
type LedgerEntry struct {
	Timestamp time.Time       `json:"ts"`
	EventType EventType       `json:"event"`
	Specialty string          `json:"specialty"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// canonicalEntry fixes the hashed field order; keys are alphabetical.
type canonicalEntry struct {
	Event     EventType       `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	Specialty string          `json:"specialty"`
	Timestamp string          `json:"ts"`
}

// NewLedgerEntry builds and seals an entry linked to prevHash.
func NewLedgerEntry(prevHash string, ts time.Time, event EventType, specialty string, payload any) (LedgerEntry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("encode %s payload: %w", event, err)
	}

	entry := LedgerEntry{
		Timestamp: ts.UTC(),
		EventType: event,
		Specialty: specialty,
		Payload:   raw,
		PrevHash:  prevHash,
	}

	hash, err := entry.ComputeHash()
	if err != nil {
		return LedgerEntry{}, err
	}
	entry.Hash = hash

	return entry, nil
}

func (e LedgerEntry) ComputeHash() (string, error) {
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	body, err := json.Marshal(canonicalEntry{
		Event:     e.EventType,
		Payload:   payload,
		PrevHash:  e.PrevHash,
		Specialty: e.Specialty,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("encode ledger entry: %w", err)
	}

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// DecodePayload unmarshals the entry payload into target.
func (e LedgerEntry) DecodePayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// AppendBounded pushes entry and drops the oldest entries past retention.
// It returns the retained entries and how many were dropped.
func AppendBounded(entries []LedgerEntry, entry LedgerEntry, retention int) ([]LedgerEntry, int) {
	entries = append(entries, entry)
	if retention <= 0 || len(entries) <= retention {
		return entries, 0
	}

	dropped := len(entries) - retention
	retained := make([]LedgerEntry, retention)
	copy(retained, entries[dropped:])
	return retained, dropped
}

// LastHash returns the hash the next entry must link to.
func LastHash(entries []LedgerEntry) string {
	if len(entries) == 0 {
		return GenesisHash
	}
	return entries[len(entries)-1].Hash
}

// ChainError pinpoints the first broken link.
type ChainError struct {
	Index  int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s at entry %d: %s", ErrChainCorrupted, e.Index, e.Reason)
}

func (e *ChainError) Unwrap() error {
	return ErrChainCorrupted
}

// VerifyChain recomputes hashes and links across entries. When truncated is false the
// first entry must link to the genesis marker; otherwise the retained suffix is anchored
// on its own first entry.
func VerifyChain(entries []LedgerEntry, truncated bool) error {
	for i, entry := range entries {
		switch {
		case i == 0 && !truncated && entry.PrevHash != GenesisHash:
			return &ChainError{Index: i, Reason: fmt.Sprintf("expected prev hash %q, got %q", GenesisHash, entry.PrevHash)}
		case i > 0 && entry.PrevHash != entries[i-1].Hash:
			return &ChainError{Index: i, Reason: fmt.Sprintf("prev hash %q does not match %q", entry.PrevHash, entries[i-1].Hash)}
		}

		computed, err := entry.ComputeHash()
		if err != nil {
			return &ChainError{Index: i, Reason: err.Error()}
		}
		if computed != entry.Hash {
			return &ChainError{Index: i, Reason: fmt.Sprintf("stored hash %q, computed %q", entry.Hash, computed)}
		}
	}

	return nil
}
