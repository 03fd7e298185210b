package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/voice-intake/internal/api/router"
	"github.com/wolfman30/voice-intake/internal/availability"
	"github.com/wolfman30/voice-intake/internal/booking"
	appconfig "github.com/wolfman30/voice-intake/internal/config"
	"github.com/wolfman30/voice-intake/internal/dialogue"
	"github.com/wolfman30/voice-intake/internal/http/handlers"
	"github.com/wolfman30/voice-intake/internal/intake"
	"github.com/wolfman30/voice-intake/internal/observability/metrics"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// App is the assembled intake runtime shared by the server and the CLI.
type App struct {
	Config   *appconfig.Config
	Logger   *logging.Logger
	Engine   *availability.Engine
	Service  *intake.Service
	Dialogue *dialogue.Driver
	Handler  http.Handler

	closers []func()
}

// Build wires every component from cfg. reg may be nil, in which case a
// private registry backs /metrics.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	hours, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	lang, err := intake.ParseLanguage(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: DEFAULT_LANGUAGE: %w", err)
	}

	intakeMetrics := metrics.NewIntakeMetrics(reg)
	gw, err := BuildCalendar(ctx, cfg, metrics.NewCalendarMetrics(reg), logger)
	if err != nil {
		return nil, err
	}

	app.Engine = availability.NewEngine(gw, hours,
		availability.WithSearchHorizon(cfg.SearchHorizonDays),
		availability.WithLogger(logger),
	)

	finalizerOpts := []booking.Option{
		booking.WithDuration(cfg.AppointmentDuration),
		booking.WithDescriptionSuffix(cfg.EventDescriptionSuffix),
		booking.WithLogger(logger),
		booking.WithMetrics(intakeMetrics),
	}
	ledger, pool, err := BuildLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		app.closers = append(app.closers, pool.Close)
		finalizerOpts = append(finalizerOpts, booking.WithLedger(ledger))
	}
	finalizer := booking.NewFinalizer(gw, hours.Location, finalizerOpts...)

	machine := intake.NewMachine(app.Engine, finalizer,
		intake.WithPersona(intake.Persona{AssistantName: cfg.AssistantName, ClinicName: cfg.ClinicName}),
		intake.WithDefaultLanguage(lang),
		intake.WithLogger(logger),
		intake.WithMetrics(intakeMetrics),
	)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	app.Service = intake.NewService(machine, BuildSessionStore(redisClient, cfg, logger), logger)

	driver, model, err := BuildDialogue(ctx, cfg, app.Service, logger)
	if err != nil {
		return nil, err
	}
	var convo handlers.Conversation
	if driver != nil {
		app.Dialogue = driver
		app.closers = append(app.closers, func() { _ = model.Close() })
		convo = driver
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		Sessions:           handlers.NewSessionHandler(app.Service, convo, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HostJWTSecret:      cfg.HostJWTSecret,
		SessionCreateRate:  cfg.SessionCreateRate,
		SessionCreateBurst: cfg.SessionCreateBurst,
	})
	ok = true
	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
