package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	paymentApplication "github.com/rcarvalho-pb/payment_checkout-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/application/webhook"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/config"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/eventbus"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/gateway/mercadopago"
	httpapi "github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/postgres"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/sqlite"
)

type app struct {
	router     http.Handler
	dispatcher *outbox.Dispatcher
	db         *sql.DB
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*app, error) {
	a := &app{}

	var (
		paymentRepo payment.Repository
		outboxRepo  outbox.Repository
	)

	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := sqlite.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.db = db
		paymentRepo = sqlite.NewPaymentRepository(db)
		outboxRepo = outbox.NewSQLiteRepository(db)
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		paymentRepo = postgres.NewPaymentRepository(db)
		outboxRepo = postgres.NewOutboxRepository(db)
	default:
		paymentRepo = inmemory.NewPaymentRepository()
		outboxRepo = inmemory.NewOutboxRepository()
	}

	gateway, err := mercadopago.NewClient(mercadopago.Config{
		BaseURL:         cfg.MercadoPago.BaseURL,
		AccessToken:     cfg.MercadoPago.AccessToken,
		NotificationURL: cfg.MercadoPago.NotificationURL,
		SuccessURL:      cfg.MercadoPago.SuccessURL,
		PendingURL:      cfg.MercadoPago.PendingURL,
		FailureURL:      cfg.MercadoPago.FailureURL,
		CurrencyID:      cfg.MercadoPago.CurrencyID,
		Timeout:         cfg.MercadoPago.Timeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	counters := &metrics.Counters{}
	recorder := &outbox.Recorder{Repo: outboxRepo}

	bus := eventbus.NewInMemoryBus()
	subscribeAudit(bus, logger, counters)

	a.dispatcher = &outbox.Dispatcher{
		Repo:         outboxRepo,
		EventBus:     bus,
		Logger:       logger,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	}

	a.router = httpapi.NewRouter(cfg.Server.APIPrefix, &httpapi.PaymentHandler{
		Service: &paymentApplication.Service{
			Repo:     paymentRepo,
			Gateway:  gateway,
			Recorder: recorder,
			Logger:   logger,
			Metrics:  counters,
		},
		Reconciler: &webhook.Reconciler{
			Repo:     paymentRepo,
			Recorder: recorder,
			Logger:   logger,
			Metrics:  counters,
		},
		Metrics: counters,
		Logger:  logger,
	})

	return a, nil
}

// subscribeAudit logs and counts every payment lifecycle event once it leaves
// the outbox.
func subscribeAudit(bus *eventbus.InMemoryBus, logger logging.Logger, counters *metrics.Counters) {
	audit := func(evt event.Event) error {
		logger.Info("payment event", map[string]any{
			"type":    evt.Type,
			"payload": evt.Payload,
		})
		return nil
	}
	count := func(event.Event) error {
		counters.IncDispatched()
		return nil
	}

	for _, typ := range []event.Type{event.PaymentCreated, event.PaymentPaid, event.PaymentFailed} {
		bus.Subscribe(typ, audit)
		bus.Subscribe(typ, count)
	}
}
