package toml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	StatePathKey    = "state.path"
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	stateConfigDir  = ".lumiere"
	stateFileName   = "state.toml"
	tempFilePattern = ".state-*.toml.tmp"
)

// StateRepository persists the whole state blob as one TOML document.
type StateRepository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StateRepository = (*StateRepository)(nil)

func NewStateRepository(cfg *viper.Viper) (*StateRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(StatePathKey)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, stateConfigDir, stateFileName)
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &StateRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *StateRepository) Path() string {
	return r.path
}

func (r *StateRepository) Load(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.State{}, err
	}

	return fromSchema(file)
}

func (r *StateRepository) Save(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := toSchema(state)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *StateRepository) readSchema() (stateSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stateSchema{}, nil
		}
		return stateSchema{}, fmt.Errorf("read state file: %w", err)
	}

	var file stateSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return stateSchema{}, fmt.Errorf("decode state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return stateSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *StateRepository) writeSchema(file stateSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	cleanup = false

	return nil
}

func toSchema(state domain.State) stateSchema {
	file := stateSchema{
		Version:        currentSchemaVersion,
		Network:        domain.Network,
		UpdatedAt:      formatTime(state.UpdatedAt),
		LedgerDropped:  state.LedgerDropped,
		Tokens:         make([]tokenSchema, 0, len(state.Tokens)),
		Rentals:        make([]rentalSchema, 0, len(state.Rentals)),
		PendingReviews: make([]pendingReviewSchema, 0, len(state.PendingReviews)),
		Ledger:         make([]ledgerEntrySchema, 0, len(state.Ledger)),
	}

	for _, key := range state.TokenKeys() {
		token := state.Tokens[key]
		encoded := tokenSchema{
			ResourceKey:      key,
			Specialty:        token.Specialty,
			DisplayName:      token.DisplayName,
			MintAddress:      token.MintAddress,
			MetadataURI:      token.MetadataURI,
			Owner:            token.Owner,
			Listed:           token.Listed,
			ListPrice:        token.ListPrice,
			RentPricePerHour: token.RentPricePerHour,
			TrainScore:       token.TrainScore,
			UsageCount:       token.UsageCount,
			ValueScore:       token.ValueScore,
			TenantID:         string(token.TenantID),
			CreatedAt:        formatTime(token.CreatedAt),
			LastTrainedAt:    formatTime(token.LastTrainedAt),
		}
		for _, record := range token.OwnershipHistory {
			encoded.OwnershipHistory = append(encoded.OwnershipHistory, ownershipSchema{
				Owner:  record.Owner,
				At:     formatTime(record.At),
				Reason: string(record.Reason),
			})
		}
		file.Tokens = append(file.Tokens, encoded)
	}

	for _, key := range sortedKeys(state.Rentals) {
		rental := state.Rentals[key]
		file.Rentals = append(file.Rentals, rentalSchema{
			ResourceKey:       key,
			Specialty:         rental.Specialty,
			OwnerAtRentalTime: rental.OwnerAtRentalTime,
			Renter:            rental.Renter,
			Hours:             rental.Hours,
			PricePerHour:      rental.PricePerHour,
			StartedAt:         formatTime(rental.StartedAt),
			ExpiresAt:         formatTime(rental.ExpiresAt),
		})
	}

	for _, id := range sortedKeys(state.PendingReviews) {
		review := state.PendingReviews[id]
		file.PendingReviews = append(file.PendingReviews, pendingReviewSchema{
			MessageID: id,
			Specialty: review.Specialty,
			Requester: review.Requester,
			Question:  review.Question,
			Answer:    review.Answer,
			CreatedAt: formatTime(review.CreatedAt),
		})
	}

	for _, entry := range state.Ledger {
		file.Ledger = append(file.Ledger, ledgerEntrySchema{
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
			EventType: string(entry.EventType),
			Specialty: entry.Specialty,
			Payload:   string(entry.Payload),
			PrevHash:  entry.PrevHash,
			Hash:      entry.Hash,
		})
	}

	return file
}

func fromSchema(file stateSchema) (domain.State, error) {
	var err error
	state := domain.NewState()
	state.LedgerDropped = file.LedgerDropped
	if state.UpdatedAt, err = parseTime(file.UpdatedAt); err != nil {
		return domain.State{}, fmt.Errorf("decode updated_at: %w", err)
	}

	for _, encoded := range file.Tokens {
		token := domain.Token{
			ResourceKey:      encoded.ResourceKey,
			Specialty:        encoded.Specialty,
			DisplayName:      encoded.DisplayName,
			MintAddress:      encoded.MintAddress,
			MetadataURI:      encoded.MetadataURI,
			Owner:            encoded.Owner,
			Listed:           encoded.Listed,
			ListPrice:        encoded.ListPrice,
			RentPricePerHour: encoded.RentPricePerHour,
			TrainScore:       encoded.TrainScore,
			UsageCount:       encoded.UsageCount,
			ValueScore:       encoded.ValueScore,
			TenantID:         domain.TenantID(encoded.TenantID),
		}
		if token.CreatedAt, err = parseTime(encoded.CreatedAt); err != nil {
			return domain.State{}, fmt.Errorf("decode token %q created_at: %w", encoded.ResourceKey, err)
		}
		if token.LastTrainedAt, err = parseTime(encoded.LastTrainedAt); err != nil {
			return domain.State{}, fmt.Errorf("decode token %q last_trained_at: %w", encoded.ResourceKey, err)
		}
		for i, record := range encoded.OwnershipHistory {
			at, err := parseTime(record.At)
			if err != nil {
				return domain.State{}, fmt.Errorf("decode token %q ownership record %d: %w", encoded.ResourceKey, i, err)
			}
			token.OwnershipHistory = append(token.OwnershipHistory, domain.OwnershipRecord{
				Owner:  record.Owner,
				At:     at,
				Reason: domain.OwnershipReason(record.Reason),
			})
		}
		state.Tokens[encoded.ResourceKey] = token
	}

	for _, encoded := range file.Rentals {
		rental := domain.Rental{
			ResourceKey:       encoded.ResourceKey,
			Specialty:         encoded.Specialty,
			OwnerAtRentalTime: encoded.OwnerAtRentalTime,
			Renter:            encoded.Renter,
			Hours:             encoded.Hours,
			PricePerHour:      encoded.PricePerHour,
		}
		if rental.StartedAt, err = parseTime(encoded.StartedAt); err != nil {
			return domain.State{}, fmt.Errorf("decode rental %q started_at: %w", encoded.ResourceKey, err)
		}
		if rental.ExpiresAt, err = parseTime(encoded.ExpiresAt); err != nil {
			return domain.State{}, fmt.Errorf("decode rental %q expires_at: %w", encoded.ResourceKey, err)
		}
		state.Rentals[encoded.ResourceKey] = rental
	}

	for _, encoded := range file.PendingReviews {
		review := domain.PendingTrainingReview{
			MessageID: encoded.MessageID,
			Specialty: encoded.Specialty,
			Requester: encoded.Requester,
			Question:  encoded.Question,
			Answer:    encoded.Answer,
		}
		if review.CreatedAt, err = parseTime(encoded.CreatedAt); err != nil {
			return domain.State{}, fmt.Errorf("decode review %q created_at: %w", encoded.MessageID, err)
		}
		state.PendingReviews[encoded.MessageID] = review
	}

	for i, encoded := range file.Ledger {
		ts, err := time.Parse(time.RFC3339Nano, encoded.Timestamp)
		if err != nil {
			return domain.State{}, fmt.Errorf("decode ledger entry %d timestamp: %w", i, err)
		}
		state.Ledger = append(state.Ledger, domain.LedgerEntry{
			Timestamp: ts.UTC(),
			EventType: domain.EventType(encoded.EventType),
			Specialty: encoded.Specialty,
			Payload:   json.RawMessage(encoded.Payload),
			PrevHash:  encoded.PrevHash,
			Hash:      encoded.Hash,
		})
	}

	return state, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// parseTime maps an empty field to the zero time.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}

	return parsed.UTC(), nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
