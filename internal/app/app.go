package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/helpdesk-labs/ticket/internal/alert"
	"github.com/helpdesk-labs/ticket/internal/dal/postgres"
	"github.com/helpdesk-labs/ticket/internal/dal/rabbitmq"
	outboxrepo "github.com/helpdesk-labs/ticket/internal/dal/repositories/outbox/postgres"
	ticketrepo "github.com/helpdesk-labs/ticket/internal/dal/repositories/ticket/postgres"
	"github.com/helpdesk-labs/ticket/internal/otel"
	"github.com/helpdesk-labs/ticket/internal/service/services/ticketsvc"
	httptransport "github.com/helpdesk-labs/ticket/internal/transport/http"
	"github.com/helpdesk-labs/ticket/internal/worker/relay"
	"github.com/helpdesk-labs/ticket/pkg/logger"
)

// App represents the application.
type App struct {
	ticketSvc       *ticketsvc.TicketService
	transport       *httptransport.HTTPTransport
	relayWorker     *relay.Worker
	alertDispatcher *alert.Dispatcher
	postgresClient  *postgres.Client
	rabbitClient    *rabbitmq.Client
	otelController  *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	outboxRepo := outboxrepo.NewOutboxRepository(postgresClient)
	ticketRepo := ticketrepo.NewTicketRepository(postgresClient)

	gate := alert.NewGate(alert.GateConfig{
		Limit:                viper.GetInt("bot.counter.limit"),
		WindowHours:          viper.GetFloat64("bot.counter.window_hours"),
		CacheTTL:             time.Duration(cacheTTLDays()) * 24 * time.Hour,
		LegacyWindowSuppress: viper.GetBool("bot.counter.legacy_window_suppress"),
	})

	notifier := alert.NewWebhookNotifier(
		viper.GetString("bot.webhook_url"),
		10*time.Second,
	)
	dispatcher := alert.NewDispatcher(
		notifier,
		viper.GetInt("bot.dispatch_workers"),
		viper.GetInt("bot.dispatch_queue_size"),
	)

	// Reinstall the default logger with the alert handler around it so every
	// error-level log event reaches the gate.
	alertHandler := alert.NewHandler(logger.NewHandler(nil), gate, dispatcher, alert.HandlerConfig{
		Enabled:       viper.GetBool("bot.enabled"),
		ServiceName:   viper.GetString("bot.service_name"),
		ServiceDomain: viper.GetString("bot.service_domain"),
	})
	slog.SetDefault(slog.New(alertHandler))

	ticketSvc := ticketsvc.MustNewTicketService(
		ticketsvc.WithPostgresClient(postgresClient),
		ticketsvc.WithRepositories(ticketRepo, outboxRepo),
	)

	transport := httptransport.NewHTTPTransport(ticketSvc)
	transport.RegisterRoutes()

	relayWorker := relay.NewWorker(
		outboxRepo,
		rabbitClient,
		pollInterval(),
		publishTimeout(),
		batchSize(),
	)

	return &App{
		ticketSvc:       ticketSvc,
		transport:       transport,
		relayWorker:     relayWorker,
		alertDispatcher: dispatcher,
		postgresClient:  postgresClient,
		rabbitClient:    rabbitClient,
		otelController:  otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The dispatcher gets its own context so stopping the relay does not
	// cut off alerts for errors logged during shutdown.
	dispatchCtx, dispatchCancel := context.WithCancel(context.Background())
	defer dispatchCancel()

	go a.alertDispatcher.Start(dispatchCtx)
	go a.relayWorker.Start(ctx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.transport.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancel()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}

	// Stopped last so shutdown errors logged above can still be alerted;
	// anything logged after this point is dropped by the dispatcher.
	a.alertDispatcher.Stop()

	slog.Info("Application shutdown complete")
}

func pollInterval() time.Duration {
	seconds := viper.GetInt("relay.poll_interval_seconds")
	if seconds == 0 {
		seconds = 10
	}

	return time.Duration(seconds) * time.Second
}

func publishTimeout() time.Duration {
	seconds := viper.GetInt("relay.publish_timeout_seconds")
	if seconds == 0 {
		seconds = 5
	}

	return time.Duration(seconds) * time.Second
}

func batchSize() int {
	size := viper.GetInt("relay.max_batch_size")
	if size == 0 {
		size = 100
	}

	return size
}

func cacheTTLDays() int {
	days := viper.GetInt("relay.cache_ttl_days")
	if days == 0 {
		days = 2
	}

	return days
}
