package container

import (
	"database/sql"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"warehouse/internal/catalog"
	"warehouse/internal/coordinator"
	"warehouse/internal/events"
	"warehouse/internal/ledger"
	"warehouse/internal/locations"
	"warehouse/internal/mobile"
	"warehouse/internal/repository"
	"warehouse/internal/sessions"
	"warehouse/pkg/security"
)

type Container struct {
	Repository      *repository.Repository
	Ledger          ledger.Ledger
	Registry        locations.Registry
	Catalog         catalog.Catalog
	Sessions        *sessions.Manager
	Events          *events.Publisher
	Coordinator     *coordinator.Coordinator
	LoginHandler    *security.LoginHandler
	SessionHandler  *mobile.SessionHandler
	LedgerHandler   *ledger.Handler
	LocationHandler *locations.LocationHandler
}

func NewAppContainer(db *sql.DB, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)

	stockLedger := ledger.NewPostgresLedger(repo)
	registry := locations.NewPostgresRegistry(repo)
	productCatalog := catalog.NewPostgresCatalog(repo)

	publisher := events.NewPublisher(&events.ZapSink{Logger: logger}, eventQueueSize(), logger)

	store := newSessionStore(logger)
	manager := sessions.NewManager(store, idleTimeout(), publisher, logger)

	coord := coordinator.New(manager, stockLedger, registry, productCatalog, publisher, logger)

	return &Container{
		Repository:      repo,
		Ledger:          stockLedger,
		Registry:        registry,
		Catalog:         productCatalog,
		Sessions:        manager,
		Events:          publisher,
		Coordinator:     coord,
		LoginHandler:    security.NewLoginHandler(repo),
		SessionHandler:  mobile.NewSessionHandler(manager, coord),
		LedgerHandler:   ledger.NewHandler(stockLedger),
		LocationHandler: locations.NewLocationHandler(registry, stockLedger),
	}
}

func newSessionStore(logger *zap.Logger) sessions.Store {
	if os.Getenv("SESSION_STORE") != "redis" {
		return sessions.NewMemoryStore()
	}
	opts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	return sessions.NewRedisStore(redis.NewClient(opts), idleTimeout())
}

func idleTimeout() time.Duration {
	raw := os.Getenv("SESSION_IDLE_TIMEOUT")
	if raw == "" {
		return sessions.DefaultIdleTimeout
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil || timeout <= 0 {
		return sessions.DefaultIdleTimeout
	}
	return timeout
}

func eventQueueSize() int {
	raw := os.Getenv("EVENT_QUEUE_SIZE")
	if raw == "" {
		return 0
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return size
}
