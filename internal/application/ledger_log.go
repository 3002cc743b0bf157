package application

import (
	"fmt"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	logging "github.com/ipfs/go-log/v2"
)

const DefaultLedgerRetention = 500

var ledgerLog = logging.Logger("lm-ledger")

// LedgerLog appends hash-chained entries to a bounded log. Entries past the retention
// cap are dropped oldest first, so verification only covers the retained suffix.
type LedgerLog struct {
	retention int
}

func NewLedgerLog(retention int) *LedgerLog {
	if retention < 1 {
		retention = DefaultLedgerRetention
	}
	return &LedgerLog{retention: retention}
}

func (l *LedgerLog) Retention() int {
	return l.retention
}

func (l *LedgerLog) Append(state *domain.State, now time.Time, event domain.EventType, specialty string, payload any) error {
	entry, err := domain.NewLedgerEntry(domain.LastHash(state.Ledger), now, event, specialty, payload)
	if err != nil {
		return fmt.Errorf("build %s ledger entry: %w", event, err)
	}

	entries, dropped := domain.AppendBounded(state.Ledger, entry, l.retention)
	state.Ledger = entries
	state.LedgerDropped += dropped
	if dropped > 0 {
		ledgerLog.Debugw("ledger retention reached", "dropped", dropped, "retention", l.retention)
	}

	return nil
}

// Verify checks the chain across the retained entries of state.
func (l *LedgerLog) Verify(state domain.State) error {
	if err := domain.VerifyChain(state.Ledger, state.LedgerDropped > 0); err != nil {
		ledgerLog.Errorw("ledger verification failed", "error", err, "entries", len(state.Ledger))
		return err
	}
	return nil
}
