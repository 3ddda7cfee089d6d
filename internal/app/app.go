// Package app wires configuration into the storage backends and services
// shared by the API server and the cronjob runner.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reconledger-backend/internal/config"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/repository/memory"
	"reconledger-backend/internal/repository/postgres"
	"reconledger-backend/internal/service"
	"reconledger-backend/internal/staging"
)

// App holds the opened backends and the services built on them.
type App struct {
	Config    *config.Config
	Store     repository.Store
	Stager    staging.Stager
	Publisher events.Publisher

	Ledger         service.LedgerService
	Counterparties service.CounterpartyService
	Payments       service.PaymentService
	Allocations    service.AllocationService
	Obligations    service.ObligationService
	Custodies      service.CustodyService
	Transfers      service.TransferService
	Reconciliation service.ReconciliationService
	Imports        service.ImportService
	Commissions    service.CommissionService

	db  *sql.DB
	rdb redis.UniversalClient
}

// Open connects to the configured database and redis. Without a database
// host the ledger lives in memory; without a redis address staged imports
// stay in process and events are not published.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.UsesPostgres() {
		logger.Info("Connecting to database...", "driver", cfg.Database.Driver, "host", cfg.Database.Host,
			"port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sql.Open(cfg.Database.Driver, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
		if err := db.PingContext(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("Database schema applied")
		}
		a.Store = postgres.NewStore(db)
	} else {
		logger.Warn("No database configured, using the in-memory store")
		a.Store = memory.NewStore()
	}

	a.Publisher = events.NoopPublisher{}
	if cfg.UsesRedis() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.rdb = rdb
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		a.Stager = staging.NewRedisStager(rdb, cfg.StagingTTL())
		if cfg.Events.Enabled {
			a.Publisher = events.NewRedisPublisher(rdb, cfg.Events.ChannelPrefix)
		}
	} else {
		a.Stager = staging.NewMemoryStager(cfg.StagingTTL())
	}

	a.buildServices(service.SystemClock)
	return a, nil
}

func (a *App) buildServices(clock service.Clock) {
	cfg := a.Config
	a.Ledger = service.NewLedgerService(a.Store)
	a.Counterparties = service.NewCounterpartyService(a.Store)
	a.Payments = service.NewPaymentService(a.Store, a.Publisher, clock)
	a.Allocations = service.NewAllocationService(a.Store, a.Publisher, clock)
	a.Obligations = service.NewObligationService(a.Store, clock)
	a.Custodies = service.NewCustodyService(a.Store)
	a.Transfers = service.NewTransferService(a.Store, clock)
	a.Reconciliation = service.NewReconciliationService(a.Store, a.Publisher, clock, cfg.Reconciliation.MaxSuggestions)
	a.Imports = service.NewImportService(a.Store, a.Stager, a.Publisher, clock)
	a.Commissions = service.NewCommissionService(a.Store, a.Publisher, clock, cfg.Commission.DueDay)
}

// Ping reports whether the backing stores are reachable.
func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logger.Warn("Failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}
