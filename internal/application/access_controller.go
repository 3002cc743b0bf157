package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

type Role string

const (
	RoleNone         Role = "none"
	RoleOwner        Role = "owner"
	RoleRenter       Role = "renter"
	RoleUnrestricted Role = "unrestricted"
)

// Control is who controls a resource at one instant, as seen by one actor.
type Control struct {
	Key        string
	Token      *domain.Token
	Rental     *domain.Rental
	Role       Role
	HasControl bool
}

// AccessController resolves whether an actor currently controls a resource: the renter
// while a rental is active, the owner otherwise.
type AccessController struct {
	store  *Store
	minter *Minter
	strict bool
}

func NewAccessController(store *Store, minter *Minter, strict bool) *AccessController {
	return &AccessController{store: store, minter: minter, strict: strict}
}

func (a *AccessController) Strict() bool {
	return a.strict
}

func (a *AccessController) HasControl(ctx context.Context, specialty, actor string) (bool, error) {
	control, err := a.Resolve(ctx, specialty, actor)
	if err != nil {
		return false, err
	}
	return control.HasControl, nil
}

// Resolve runs the control check in its own transaction, persisting any lazy mint,
// first claim or rental eviction it caused.
func (a *AccessController) Resolve(ctx context.Context, specialty, actor string) (Control, error) {
	var control Control
	err := a.store.Update(ctx, func(tx *Tx) error {
		var err error
		control, err = a.resolveLocked(ctx, tx, specialty, actor)
		return err
	})
	if err != nil {
		return Control{}, err
	}
	return control, nil
}

// RentalLock returns the active rental when it belongs to someone other than actor.
func (a *AccessController) RentalLock(ctx context.Context, specialty, actor string) (*domain.Rental, error) {
	var lock *domain.Rental
	err := a.store.Update(ctx, func(tx *Tx) error {
		rental, ok := activeRentalLocked(tx, domain.ResourceKey(specialty, actor))
		if ok && !domain.SameActor(rental.Renter, actor) {
			lock = &rental
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func (a *AccessController) IsCurrentRenter(ctx context.Context, specialty, actor string) (bool, error) {
	lock, err := a.store.activeRental(ctx, domain.ResourceKey(specialty, actor))
	if err != nil {
		return false, err
	}
	return lock != nil && domain.SameActor(lock.Renter, actor), nil
}

// StrictBlock returns a denial message when strict mode is on and actor lacks control.
// An empty string means the actor may proceed.
func (a *AccessController) StrictBlock(ctx context.Context, specialty, actor string) (string, error) {
	if !a.strict {
		return "", nil
	}

	control, err := a.Resolve(ctx, specialty, actor)
	if err != nil {
		return "", err
	}
	if control.HasControl {
		return "", nil
	}

	return denialMessage(control), nil
}

func (a *AccessController) resolveLocked(ctx context.Context, tx *Tx, specialty, actor string) (Control, error) {
	key := domain.ResourceKey(specialty, actor)
	control := Control{Key: key, Role: RoleNone}

	token, ok := tx.State.Tokens[key]
	if !ok && domain.IsPersonal(specialty) {
		minted, err := a.minter.mint(ctx, tx, specialty, personalOwner(actor), "")
		switch {
		case err == nil:
			token, ok = minted, true
		case errors.Is(err, domain.ErrNotFound):
			log.Warnw("personal profile missing, access left unrestricted", "key", key)
		default:
			return Control{}, err
		}
	}
	if !ok {
		// Nothing minted yet: nobody holds the resource, so it stays open.
		log.Debugw("no token minted, access unrestricted", "key", key)
		control.Role = RoleUnrestricted
		control.HasControl = true
		return control, nil
	}

	if domain.IsUnclaimedOwner(token.Owner) && strings.TrimSpace(actor) != "" {
		claimant := strings.TrimSpace(actor)
		token.TransferTo(claimant, domain.OwnershipReasonFirstClaim, tx.Now())
		tx.State.Tokens[key] = token
		if err := tx.Record(domain.EventClaimOwner, token.Specialty, map[string]any{"owner": claimant}); err != nil {
			return Control{}, err
		}
	}

	control.Token = &token
	if rental, rented := activeRentalLocked(tx, key); rented {
		control.Rental = &rental
		if domain.SameActor(actor, rental.Renter) {
			control.Role = RoleRenter
			control.HasControl = true
		}
		return control, nil
	}

	if domain.SameActor(actor, token.Owner) {
		control.Role = RoleOwner
		control.HasControl = true
	}

	return control, nil
}

// activeRentalLocked evicts the rental under key if it has expired at the transaction clock.
func activeRentalLocked(tx *Tx, key string) (domain.Rental, bool) {
	rental, ok := tx.State.Rentals[key]
	if !ok {
		return domain.Rental{}, false
	}
	if rental.Expired(tx.Now()) {
		delete(tx.State.Rentals, key)
		tx.Touch()
		log.Warnw("evicted expired rental", "key", key, "renter", rental.Renter, "expired_at", rental.ExpiresAt)
		return domain.Rental{}, false
	}
	return rental, true
}

// activeRental reads the rental under key without mutating state.
func (s *Store) activeRental(ctx context.Context, key string) (*domain.Rental, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rental, ok := s.state.ActiveRental(key, s.clock.Now())
	if !ok {
		return nil, nil
	}
	return &rental, nil
}

func personalOwner(actor string) string {
	if trimmed := strings.TrimSpace(actor); trimmed != "" {
		return trimmed
	}
	return "local_user"
}

func denialMessage(control Control) string {
	if control.Rental != nil {
		return fmt.Sprintf("Strict access: this resource is rented by %s until %s.",
			control.Rental.Renter, control.Rental.ExpiresAt.Format(time.RFC3339))
	}

	owner := "unknown"
	if control.Token != nil && control.Token.Owner != "" {
		owner = control.Token.Owner
	}
	return fmt.Sprintf("Strict access: only owner '%s' can use this resource right now.", owner)
}
