package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
)

const (
	metaLedgerDropped = "ledger_dropped"
	metaUpdatedAt     = "updated_at"
)

// StateRepository stores each state table in its own SQL table. Save replaces every
// table inside one transaction, so readers never observe a half-written state.
type StateRepository struct {
	db *DB
}

var _ ports.StateRepository = (*StateRepository)(nil)

func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) Load(ctx context.Context) (domain.State, error) {
	state := domain.NewState()

	if err := r.loadTokens(ctx, &state); err != nil {
		return domain.State{}, err
	}
	if err := r.loadOwnershipHistory(ctx, &state); err != nil {
		return domain.State{}, err
	}
	if err := r.loadRentals(ctx, &state); err != nil {
		return domain.State{}, err
	}
	if err := r.loadPendingReviews(ctx, &state); err != nil {
		return domain.State{}, err
	}
	if err := r.loadLedger(ctx, &state); err != nil {
		return domain.State{}, err
	}
	if err := r.loadMeta(ctx, &state); err != nil {
		return domain.State{}, err
	}

	return state, nil
}

func (r *StateRepository) Save(ctx context.Context, state domain.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"ownership_history", "tokens", "rentals", "pending_reviews", "ledger", "state_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, key := range state.TokenKeys() {
		token := state.Tokens[key]
		var price sql.NullFloat64
		if token.ListPrice != nil {
			price = sql.NullFloat64{Float64: *token.ListPrice, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tokens (resource_key, specialty, display_name, mint_address, metadata_uri, owner,
				listed, list_price, rent_price_per_hour, train_score, usage_count, value_score,
				tenant_id, created_at, last_trained_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, token.Specialty, token.DisplayName, token.MintAddress, token.MetadataURI, token.Owner,
			token.Listed, price, token.RentPricePerHour, token.TrainScore, token.UsageCount, token.ValueScore,
			string(token.TenantID), formatTime(token.CreatedAt), formatTime(token.LastTrainedAt),
		)
		if err != nil {
			return fmt.Errorf("insert token %s: %w", key, err)
		}

		for seq, record := range token.OwnershipHistory {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO ownership_history (resource_key, seq, owner, at, reason) VALUES (?, ?, ?, ?, ?)",
				key, seq, record.Owner, formatTime(record.At), string(record.Reason),
			); err != nil {
				return fmt.Errorf("insert ownership history %s/%d: %w", key, seq, err)
			}
		}
	}

	for key, rental := range state.Rentals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rentals (resource_key, specialty, owner_at_rental_time, renter, hours, price_per_hour, started_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			key, rental.Specialty, rental.OwnerAtRentalTime, rental.Renter, rental.Hours, rental.PricePerHour,
			formatTime(rental.StartedAt), formatTime(rental.ExpiresAt),
		); err != nil {
			return fmt.Errorf("insert rental %s: %w", key, err)
		}
	}

	for id, review := range state.PendingReviews {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pending_reviews (message_id, specialty, requester, question, answer, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, review.Specialty, review.Requester, review.Question, review.Answer, formatTime(review.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert pending review %s: %w", id, err)
		}
	}

	for seq, entry := range state.Ledger {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger (seq, ts, event, specialty, payload, prev_hash, hash)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			seq, entry.Timestamp.UTC().Format(time.RFC3339Nano), string(entry.EventType), entry.Specialty,
			string(entry.Payload), entry.PrevHash, entry.Hash,
		); err != nil {
			return fmt.Errorf("insert ledger entry %d: %w", seq, err)
		}
	}

	meta := map[string]string{
		metaLedgerDropped: strconv.Itoa(state.LedgerDropped),
		metaUpdatedAt:     formatTime(state.UpdatedAt),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO state_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("insert state meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (r *StateRepository) loadTokens(ctx context.Context, state *domain.State) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT resource_key, specialty, display_name, mint_address, metadata_uri, owner, listed, list_price,
			rent_price_per_hour, train_score, usage_count, value_score, tenant_id, created_at, last_trained_at
		FROM tokens ORDER BY resource_key`)
	if err != nil {
		return fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			token              domain.Token
			price              sql.NullFloat64
			tenant             string
			created, lastTrain string
		)
		if err := rows.Scan(&token.ResourceKey, &token.Specialty, &token.DisplayName, &token.MintAddress,
			&token.MetadataURI, &token.Owner, &token.Listed, &price, &token.RentPricePerHour, &token.TrainScore,
			&token.UsageCount, &token.ValueScore, &tenant, &created, &lastTrain); err != nil {
			return fmt.Errorf("scan token: %w", err)
		}
		if price.Valid {
			value := price.Float64
			token.ListPrice = &value
		}
		token.TenantID = domain.TenantID(tenant)
		if token.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("decode token %q created_at: %w", token.ResourceKey, err)
		}
		if token.LastTrainedAt, err = parseTime(lastTrain); err != nil {
			return fmt.Errorf("decode token %q last_trained_at: %w", token.ResourceKey, err)
		}
		state.Tokens[token.ResourceKey] = token
	}
	return rows.Err()
}

func (r *StateRepository) loadOwnershipHistory(ctx context.Context, state *domain.State) error {
	rows, err := r.db.QueryContext(ctx, "SELECT resource_key, owner, at, reason FROM ownership_history ORDER BY resource_key, seq")
	if err != nil {
		return fmt.Errorf("query ownership history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, owner, at, reason string
		if err := rows.Scan(&key, &owner, &at, &reason); err != nil {
			return fmt.Errorf("scan ownership history: %w", err)
		}
		token, ok := state.Tokens[key]
		if !ok {
			continue
		}
		when, err := parseTime(at)
		if err != nil {
			return fmt.Errorf("decode ownership record for %q: %w", key, err)
		}
		token.OwnershipHistory = append(token.OwnershipHistory, domain.OwnershipRecord{
			Owner:  owner,
			At:     when,
			Reason: domain.OwnershipReason(reason),
		})
		state.Tokens[key] = token
	}
	return rows.Err()
}

func (r *StateRepository) loadRentals(ctx context.Context, state *domain.State) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT resource_key, specialty, owner_at_rental_time, renter, hours, price_per_hour, started_at, expires_at
		FROM rentals`)
	if err != nil {
		return fmt.Errorf("query rentals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rental           domain.Rental
			started, expires string
		)
		if err := rows.Scan(&rental.ResourceKey, &rental.Specialty, &rental.OwnerAtRentalTime, &rental.Renter,
			&rental.Hours, &rental.PricePerHour, &started, &expires); err != nil {
			return fmt.Errorf("scan rental: %w", err)
		}
		if rental.StartedAt, err = parseTime(started); err != nil {
			return fmt.Errorf("decode rental %q started_at: %w", rental.ResourceKey, err)
		}
		if rental.ExpiresAt, err = parseTime(expires); err != nil {
			return fmt.Errorf("decode rental %q expires_at: %w", rental.ResourceKey, err)
		}
		state.Rentals[rental.ResourceKey] = rental
	}
	return rows.Err()
}

func (r *StateRepository) loadPendingReviews(ctx context.Context, state *domain.State) error {
	rows, err := r.db.QueryContext(ctx, "SELECT message_id, specialty, requester, question, answer, created_at FROM pending_reviews")
	if err != nil {
		return fmt.Errorf("query pending reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			review  domain.PendingTrainingReview
			created string
		)
		if err := rows.Scan(&review.MessageID, &review.Specialty, &review.Requester, &review.Question, &review.Answer, &created); err != nil {
			return fmt.Errorf("scan pending review: %w", err)
		}
		if review.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("decode review %q created_at: %w", review.MessageID, err)
		}
		state.PendingReviews[review.MessageID] = review
	}
	return rows.Err()
}

func (r *StateRepository) loadLedger(ctx context.Context, state *domain.State) error {
	rows, err := r.db.QueryContext(ctx, "SELECT seq, ts, event, specialty, payload, prev_hash, hash FROM ledger ORDER BY seq")
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq       int
			ts, event string
			payload   string
			entry     domain.LedgerEntry
		)
		if err := rows.Scan(&seq, &ts, &event, &entry.Specialty, &payload, &entry.PrevHash, &entry.Hash); err != nil {
			return fmt.Errorf("scan ledger entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("decode ledger entry %d timestamp: %w", seq, err)
		}
		entry.Timestamp = parsed.UTC()
		entry.EventType = domain.EventType(event)
		entry.Payload = json.RawMessage(payload)
		state.Ledger = append(state.Ledger, entry)
	}
	return rows.Err()
}

func (r *StateRepository) loadMeta(ctx context.Context, state *domain.State) error {
	var dropped string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM state_meta WHERE key = ?", metaLedgerDropped).Scan(&dropped)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query ledger dropped: %w", err)
	default:
		n, err := strconv.Atoi(dropped)
		if err != nil {
			return fmt.Errorf("decode ledger dropped %q: %w", dropped, err)
		}
		state.LedgerDropped = n
	}

	var updated string
	err = r.db.QueryRowContext(ctx, "SELECT value FROM state_meta WHERE key = ?", metaUpdatedAt).Scan(&updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query updated at: %w", err)
	default:
		if state.UpdatedAt, err = parseTime(updated); err != nil {
			return fmt.Errorf("decode updated at %q: %w", updated, err)
		}
	}

	return nil
}

// parseTime maps an empty column to the zero time.
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
