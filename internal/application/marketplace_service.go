package application

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

const (
	buyValueBonus  = 0.05
	rentValueBonus = 0.03
	trainPerSignal = 0.08
	trainBaseBonus = 0.01
)

// MarketplaceService is the only writer of tokens, rentals and the ledger. Each
// operation runs as one Store transaction and records its ledger event there.
type MarketplaceService struct {
	store  *Store
	access *AccessController
	minter *Minter
}

func NewMarketplaceService(store *Store, access *AccessController, minter *Minter) *MarketplaceService {
	return &MarketplaceService{store: store, access: access, minter: minter}
}

func (s *MarketplaceService) Mint(ctx context.Context, cmd MintCommand) (domain.Token, error) {
	if strings.TrimSpace(cmd.Specialty) == "" {
		return domain.Token{}, domain.Validationf("specialty is required")
	}
	owner := strings.TrimSpace(cmd.Owner)
	if owner == "" {
		return domain.Token{}, domain.Validationf("owner is required")
	}

	var token domain.Token
	err := s.store.Update(ctx, func(tx *Tx) error {
		var err error
		token, err = s.minter.mint(ctx, tx, cmd.Specialty, owner, cmd.Tenant)
		return err
	})
	if err != nil {
		return domain.Token{}, err
	}

	return token.Clone(), nil
}

func (s *MarketplaceService) List(ctx context.Context, cmd ListCommand) (domain.Token, error) {
	var token domain.Token
	err := s.store.Update(ctx, func(tx *Tx) error {
		key := domain.ResourceKey(cmd.Specialty, cmd.Seller)
		current, ok := tx.State.Tokens[key]
		if !ok {
			return domain.NotFoundf("no token for %q", key)
		}
		if cmd.Price <= 0 || math.IsNaN(cmd.Price) || math.IsInf(cmd.Price, 0) {
			return domain.Validationf("price must be a positive finite number")
		}
		if strings.TrimSpace(string(cmd.Tenant)) != "" && !current.VisibleTo(cmd.Tenant) {
			return domain.Conflictf("token %q belongs to another tenant", key)
		}
		if !domain.SameActor(cmd.Seller, current.Owner) {
			return domain.Conflictf("only owner %q can list %q", current.Owner, key)
		}
		if current.Listed {
			return domain.Conflictf("token %q is already listed", key)
		}

		price := domain.RoundPrice(cmd.Price)
		current.Listed = true
		current.ListPrice = &price
		tx.State.Tokens[key] = current
		token = current

		return tx.Record(domain.EventList, current.Specialty, map[string]any{
			"seller": strings.TrimSpace(cmd.Seller),
			"price":  price,
		})
	})
	if err != nil {
		return domain.Token{}, err
	}

	return token.Clone(), nil
}

func (s *MarketplaceService) Buy(ctx context.Context, cmd BuyCommand) (domain.Token, error) {
	buyer := strings.TrimSpace(cmd.Buyer)
	if buyer == "" {
		return domain.Token{}, domain.Validationf("buyer is required")
	}

	var token domain.Token
	err := s.store.Update(ctx, func(tx *Tx) error {
		current, ok := resolveForBuy(tx.State, cmd)
		if !ok {
			return domain.NotFoundf("no %s token available in tenant %q", domain.NormalizeSpecialty(cmd.Specialty), domain.NormalizeTenant(cmd.Tenant))
		}
		if !current.Listed {
			return domain.Conflictf("token %q is not listed", current.ResourceKey)
		}
		if domain.SameActor(buyer, current.Owner) {
			return domain.Conflictf("%q already owns %q", buyer, current.ResourceKey)
		}

		seller := current.Owner
		oldKey := current.ResourceKey
		current.TransferTo(buyer, domain.OwnershipReasonBuy, tx.Now())
		current.Listed = false
		current.ListPrice = nil
		current.AddValue(buyValueBonus)

		if domain.IsPersonal(current.Specialty) {
			newKey := domain.ResourceKey(current.Specialty, buyer)
			if newKey != oldKey {
				// The buyer's own personal token is replaced by the purchased one.
				if displaced, taken := tx.State.Tokens[newKey]; taken {
					log.Warnw("replacing buyer's personal token", "key", newKey, "mint_address", displaced.MintAddress)
					delete(tx.State.Rentals, newKey)
				}
				delete(tx.State.Tokens, oldKey)
				if rental, rented := tx.State.Rentals[oldKey]; rented {
					delete(tx.State.Rentals, oldKey)
					rental.ResourceKey = newKey
					tx.State.Rentals[newKey] = rental
				}
				current.ResourceKey = newKey
			}
		}

		tx.State.Tokens[current.ResourceKey] = current
		token = current

		return tx.Record(domain.EventTransfer, current.Specialty, map[string]any{
			"from":   seller,
			"to":     buyer,
			"method": string(domain.OwnershipReasonBuy),
		})
	})
	if err != nil {
		return domain.Token{}, err
	}

	return token.Clone(), nil
}

// resolveForBuy prefers the seller hint, then any listed token of the specialty in the
// buyer's tenant, then the shared key itself so an unlisted token reports a conflict.
func resolveForBuy(state *domain.State, cmd BuyCommand) (domain.Token, bool) {
	if hint := strings.TrimSpace(cmd.SellerHint); hint != "" {
		token, ok := state.Tokens[domain.ResourceKey(cmd.Specialty, hint)]
		if ok && token.VisibleTo(cmd.Tenant) {
			return token, true
		}
	}

	if token, ok := state.FindListed(cmd.Specialty, cmd.Tenant); ok {
		return token, true
	}

	if domain.IsPersonal(cmd.Specialty) {
		return domain.Token{}, false
	}
	token, ok := state.Tokens[domain.ResourceKey(cmd.Specialty, cmd.Buyer)]
	if !ok || !token.VisibleTo(cmd.Tenant) {
		return domain.Token{}, false
	}
	return token, true
}

func (s *MarketplaceService) Rent(ctx context.Context, cmd RentCommand) (RentResult, error) {
	renter := strings.TrimSpace(cmd.Renter)
	if renter == "" {
		return RentResult{}, domain.Validationf("renter is required")
	}

	var result RentResult
	err := s.store.Update(ctx, func(tx *Tx) error {
		current, ok := tx.State.Tokens[domain.ResourceKey(cmd.Specialty, renter)]
		if ok && !current.VisibleTo(cmd.Tenant) {
			ok = false
		}
		if !ok && domain.IsPersonal(cmd.Specialty) {
			current, ok = tx.State.FindListed(cmd.Specialty, cmd.Tenant)
		}
		if !ok {
			return domain.NotFoundf("no %s token to rent in tenant %q", domain.NormalizeSpecialty(cmd.Specialty), domain.NormalizeTenant(cmd.Tenant))
		}

		if existing, rented := activeRentalLocked(tx, current.ResourceKey); rented {
			return domain.Conflictf("already rented by %s until %s", existing.Renter, existing.ExpiresAt.Format(time.RFC3339))
		}
		if cmd.Hours < 1 || int64(cmd.Hours) > domain.MaxRentalHours {
			return domain.Validationf("hours must be between 1 and %d", domain.MaxRentalHours)
		}

		rental := domain.NewRental(current, renter, cmd.Hours, tx.Now())
		tx.State.Rentals[current.ResourceKey] = rental
		current.AddValue(rentValueBonus)
		tx.State.Tokens[current.ResourceKey] = current
		result = RentResult{Rental: rental, Token: current}

		return tx.Record(domain.EventRent, current.Specialty, map[string]any{
			"owner":  current.Owner,
			"renter": renter,
			"hours":  cmd.Hours,
		})
	})
	if err != nil {
		return RentResult{}, err
	}

	result.Token = result.Token.Clone()
	return result, nil
}

func (s *MarketplaceService) Train(ctx context.Context, cmd TrainCommand) (domain.Token, error) {
	var token domain.Token
	err := s.store.Update(ctx, func(tx *Tx) error {
		var err error
		token, err = s.trainLocked(ctx, tx, cmd)
		return err
	})
	if err != nil {
		return domain.Token{}, err
	}

	return token.Clone(), nil
}

func (s *MarketplaceService) trainLocked(ctx context.Context, tx *Tx, cmd TrainCommand) (domain.Token, error) {
	control, err := s.access.resolveLocked(ctx, tx, cmd.Specialty, cmd.Actor)
	if err != nil {
		return domain.Token{}, err
	}
	if !control.HasControl {
		return domain.Token{}, domain.Authorizationf("no control over %q", control.Key)
	}
	if control.Token == nil {
		return domain.Token{}, domain.NotFoundf("no token for %q", control.Key)
	}

	gain := cmd.Signal
	if gain < 0 {
		gain = 0
	}

	current := tx.State.Tokens[control.Key]
	current.UsageCount++
	current.TrainScore += gain
	current.AddValue(float64(gain)*trainPerSignal + trainBaseBonus)
	current.LastTrainedAt = tx.Now()
	tx.State.Tokens[control.Key] = current

	if err := tx.Record(domain.EventTrain, current.Specialty, map[string]any{
		"signal":      gain,
		"value_score": current.ValueScore,
	}); err != nil {
		return domain.Token{}, err
	}

	return current, nil
}

// Marketplace lists the tokens for sale in tenant and the most recent ledger events.
func (s *MarketplaceService) Marketplace(ctx context.Context, tenant domain.TenantID) (MarketplaceView, error) {
	if err := ctx.Err(); err != nil {
		return MarketplaceView{}, err
	}

	state := s.store.Snapshot()
	listed := make([]ListedToken, 0)
	for _, key := range state.TokenKeys() {
		token := state.Tokens[key]
		if !token.Listed || !token.VisibleTo(tenant) {
			continue
		}
		listed = append(listed, ListedToken{
			ResourceKey: token.ResourceKey,
			Specialty:   token.Specialty,
			DisplayName: token.DisplayName,
			Owner:       token.Owner,
			Price:       token.ListPrice,
			MintAddress: token.MintAddress,
			ValueScore:  token.ValueScore,
			TenantID:    token.TenantID,
		})
	}

	sort.SliceStable(listed, func(i, j int) bool {
		a, b := listed[i].Price, listed[j].Price
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	return MarketplaceView{
		Network:      domain.Network,
		Tenant:       domain.NormalizeTenant(tenant),
		Listed:       listed,
		RecentEvents: state.LedgerTail(marketplaceRecentEvents),
	}, nil
}

func (s *MarketplaceService) State(ctx context.Context) (StateView, error) {
	if err := ctx.Err(); err != nil {
		return StateView{}, err
	}

	state := s.store.Snapshot()
	return StateView{
		Network:        domain.Network,
		Tokens:         state.Tokens,
		Rentals:        state.Rentals,
		PendingReviews: state.PendingReviews,
		Ledger:         state.Ledger,
		LedgerDropped:  state.LedgerDropped,
		UpdatedAt:      state.UpdatedAt,
	}, nil
}

// VerifyChain checks the retained ledger. A broken chain is reported both in the
// report and as an error wrapping domain.ErrChainCorrupted.
func (s *MarketplaceService) VerifyChain(ctx context.Context) (ChainReport, error) {
	if err := ctx.Err(); err != nil {
		return ChainReport{}, err
	}

	state := s.store.Snapshot()
	report := ChainReport{
		OK:        true,
		Entries:   len(state.Ledger),
		Truncated: state.LedgerDropped > 0,
	}
	if err := s.store.ledger.Verify(state); err != nil {
		report.OK = false
		report.Error = err.Error()
		return report, err
	}

	return report, nil
}
