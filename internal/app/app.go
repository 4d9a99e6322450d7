package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fanstake/squad-ledger/internal/config"
	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/infrastructure/account/heimdall"
	"github.com/fanstake/squad-ledger/internal/infrastructure/archive"
	"github.com/fanstake/squad-ledger/internal/infrastructure/repository/memory"
	"github.com/fanstake/squad-ledger/internal/infrastructure/repository/postgres"
	"github.com/fanstake/squad-ledger/internal/infrastructure/treasury"
	"github.com/fanstake/squad-ledger/internal/interfaces/httpapi"
	"github.com/fanstake/squad-ledger/internal/platform/cache"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
	"github.com/fanstake/squad-ledger/internal/platform/resilience"
	"github.com/fanstake/squad-ledger/internal/usecase"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// NewHTTPServer wires the full application and returns the server plus a
// cleanup function that drains the settlement archive and closes its DB.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	roles, err := access.NewRoles(
		access.Normalize(cfg.OwnerAddress),
		access.Normalize(cfg.OracleAddress),
		access.Normalize(cfg.PlatformFeeAddress),
		cfg.PlatformFeeRateBps,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap roles: %w", err)
	}

	ledger := memory.NewSquadLedger()
	ticketStore := memory.NewTicketStore()

	treasuryClient := treasury.NewClient(treasury.ClientConfig{
		BaseURL: cfg.TreasuryBaseURL,
		APIKey:  cfg.TreasuryAPIKey,
		Timeout: cfg.TreasuryTimeout,
		Retries: cfg.TreasuryMaxRetries,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TreasuryCircuitEnabled,
			FailureThreshold: cfg.TreasuryCircuitFailureCount,
			OpenTimeout:      cfg.TreasuryCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TreasuryCircuitHalfOpenReq,
		},
	}, logger)

	var recorder usecase.SettlementRecorder
	cleanup := func(context.Context) error { return nil }
	if cfg.ArchiveEnabled {
		db, dbErr := otelsqlx.Connect("postgres", cfg.ArchiveDBURL)
		if dbErr != nil {
			return nil, nil, fmt.Errorf("connect archive db: %w", dbErr)
		}

		worker, workerErr := archive.NewWorker(
			postgres.NewSettlementArchive(db),
			cfg.ArchiveWorkers,
			cfg.ArchiveInsertTimeout,
			logger,
		)
		if workerErr != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("start archive worker: %w", workerErr)
		}

		recorder = worker
		cleanup = func(context.Context) error {
			worker.Close()
			return db.Close()
		}
	}

	accessSvc := usecase.NewAccessService(roles, logger)
	wagerSvc := usecase.NewWagerService(
		ledger,
		accessSvc,
		treasuryClient,
		recorder,
		cache.NewStore(cfg.CacheTTL),
		logger,
	)
	ticketSvc := usecase.NewTicketService(
		ticketStore,
		wagerSvc,
		accessSvc,
		cfg.TicketLaxIndexCheck,
		logger,
	)

	heimdallClient := heimdall.NewClient(
		&http.Client{Timeout: cfg.HeimdallTimeout},
		cfg.HeimdallBaseURL,
		cfg.HeimdallIntrospectPath,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.HeimdallCircuitEnabled,
			FailureThreshold: cfg.HeimdallCircuitFailureCount,
			OpenTimeout:      cfg.HeimdallCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.HeimdallCircuitHalfOpenReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(wagerSvc, ticketSvc, accessSvc, logger)
	router := httpapi.NewRouter(handler, heimdallClient, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = cleanup(context.Background())
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}
