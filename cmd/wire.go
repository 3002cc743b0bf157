package cmd

import (
	"context"
	"fmt"
	"time"

	memoryfile "github.com/bnema/lumiere-ledger/internal/adapters/memory/file"
	"github.com/bnema/lumiere-ledger/internal/adapters/identity"
	"github.com/bnema/lumiere-ledger/internal/adapters/profile/static"
	marketrender "github.com/bnema/lumiere-ledger/internal/adapters/render/market"
	memoryrepo "github.com/bnema/lumiere-ledger/internal/adapters/repo/memory"
	sqliterepo "github.com/bnema/lumiere-ledger/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/lumiere-ledger/internal/adapters/repo/toml"
	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/config"
	"github.com/bnema/lumiere-ledger/internal/ports"
	"github.com/google/uuid"
)

type app struct {
	cfg            config.Config
	access         *application.AccessController
	market         *application.MarketplaceService
	feedback       *application.TrainingFeedbackAggregator
	identity       ports.IdentityResolver
	memory         ports.MemoryStore
	messageID      func() string
	marketRenderer func(application.MarketplaceView, marketrender.RenderOptions) (string, error)
	stateRenderer  func(application.StateView, marketrender.RenderOptions) (string, error)
	chainRenderer  func(application.ChainReport) (string, error)
	now            func() time.Time
	closers        []func() error
}

func wireApp() (*app, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &app{cfg: cfg}

	repo, err := a.wireStateRepository()
	if err != nil {
		return nil, err
	}

	clock := ports.SystemClock{}
	store, err := application.NewStore(context.Background(), repo, clock, application.NewLedgerLog(cfg.LedgerRetention))
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire state store: %w", err)
	}

	minter := application.NewMinter(static.NewCatalog(cfg.Profiles), nil)
	access := application.NewAccessController(store, minter, cfg.Strict)
	market := application.NewMarketplaceService(store, access, minter)
	memory := memoryfile.NewStore(cfg.MemoryPath)

	a.access = access
	a.market = market
	a.feedback = application.NewTrainingFeedbackAggregator(store, access, market, memory)
	a.identity = identity.NewResolver(cfg.DefaultTenant)
	a.memory = memory
	a.messageID = uuid.NewString
	a.marketRenderer = marketrender.RenderMarketplace
	a.stateRenderer = marketrender.RenderState
	a.chainRenderer = marketrender.RenderChain
	a.now = clock.Now

	return a, nil
}

func (a *app) wireStateRepository() (ports.StateRepository, error) {
	switch a.cfg.StateBackend {
	case config.BackendMemory:
		return memoryrepo.NewRepository(), nil
	case config.BackendSQLite:
		db, err := sqliterepo.Open(a.cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("wire sqlite state repository: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return sqliterepo.NewStateRepository(db), nil
	default:
		repo, err := tomlrepo.NewStateRepository(a.cfg.Viper)
		if err != nil {
			return nil, fmt.Errorf("wire toml state repository: %w", err)
		}
		return repo, nil
	}
}

func (a *app) close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
