// Package dashboardservice wires and runs the dashboard HTTP service.
package dashboardservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/api"
	"github.com/pulsedeck/pulsedeck/server/internal/api/recovery"
	"github.com/pulsedeck/pulsedeck/server/internal/config"
	"github.com/pulsedeck/pulsedeck/server/internal/curator"
	"github.com/pulsedeck/pulsedeck/server/internal/freshness"
	"github.com/pulsedeck/pulsedeck/server/internal/generation"
	"github.com/pulsedeck/pulsedeck/server/internal/health"
	"github.com/pulsedeck/pulsedeck/server/internal/horoscope"
	"github.com/pulsedeck/pulsedeck/server/internal/logger"
	"github.com/pulsedeck/pulsedeck/server/internal/notify"
	"github.com/pulsedeck/pulsedeck/server/internal/rules"
	"github.com/pulsedeck/pulsedeck/server/internal/sampling"
	"github.com/pulsedeck/pulsedeck/server/internal/scheduler"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
	"github.com/pulsedeck/pulsedeck/server/internal/store/fake"
	"github.com/pulsedeck/pulsedeck/server/internal/store/postgres"
)

// Run starts the dashboard service HTTP server and blocks until
// shutdown or error.
func Run() error {
	_ = godotenv.Load()

	log := logger.New("dashboard-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("timezone", cfg.Timezone).
		Str("merge_policy", cfg.MergePolicy).
		Msg("Dashboard service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := initStore(cfg, log)
	if err != nil {
		return err
	}

	svcs, err := buildServices(cfg, st, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to build services")
		return err
	}

	router := buildRouter(st, svcs)

	startHealthCheckers(ctx, cfg, log, st)

	sched := scheduler.New(st, svcs.horoscopes, svcs.curators, cfg.Location(), scheduler.Config{
		HoroscopeSweepSpec: cfg.HoroscopeSweepSpec,
		CuratorRotateSpec:  cfg.CuratorRotateSpec,
	}, log)
	if err := sched.Start(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("Failed to start scheduler")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initStore opens Postgres when a DSN is configured; outside
// production an in-memory store keeps local development friction-free.
func initStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.PostgresDSN == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("PULSEDECK_POSTGRES_DSN is required in production")
		}
		log.Warn().Msg("no Postgres DSN configured; using in-memory store")
		return fake.New(), nil
	}
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Postgres unavailable")
		return nil, err
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		return nil, err
	}
	return postgres.NewWithDB(db), nil
}

type services struct {
	horoscopes *horoscope.Service
	curators   *curator.Service
}

func buildServices(cfg *config.Config, st store.Store, log zerolog.Logger) (*services, error) {
	policy, err := rules.ParsePolicy(cfg.MergePolicy)
	if err != nil {
		return nil, err
	}
	engine := rules.NewEngine(st.Rules(), policy, cfg.RuleCacheTTL, log)

	gen := generation.NewClient(generation.Config{
		BaseURL:        cfg.GenerationURL,
		APIKey:         cfg.GenerationAPIKey,
		Retries:        cfg.GenerationRetries,
		Backoff:        cfg.GenerationBackoff,
		AttemptTimeout: cfg.AttemptTimeout,
	}, log)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SlackWebhookURL != "" {
		notifier = notify.NewSlackWebhook(cfg.SlackWebhookURL)
	}

	loc := cfg.Location()
	src := sampling.CryptoSource{}

	return &services{
		horoscopes: horoscope.NewService(st, engine, src, freshness.NewPolicy(cfg.StaleBuffer), gen, loc, log),
		curators:   curator.NewService(st, src, notifier, loc, log),
	}, nil
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, svcs *services) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Horoscope
	horoHandler := api.NewHoroscopeHandler(svcs.horoscopes, st.Artifacts())
	root.HandleFunc("/api/users/{userId}/horoscope/dates", horoHandler.GetDates).Methods("GET")
	root.HandleFunc("/api/users/{userId}/horoscope", horoHandler.GetDaily).Methods("GET")
	root.HandleFunc("/api/users/{userId}/horoscope", horoHandler.GetDaily).Methods("POST")

	// Profiles
	profileHandler := api.NewProfileHandler(st.Profiles())
	root.HandleFunc("/api/users/{userId}/profile", profileHandler.Get).Methods("GET")
	root.HandleFunc("/api/users/{userId}/profile", profileHandler.Put).Methods("PUT")

	// Curator rotation
	curatorHandler := api.NewCuratorHandler(svcs.curators)
	root.HandleFunc("/api/curator/current", curatorHandler.GetCurrent).Methods("GET")
	root.HandleFunc("/api/curator/history", curatorHandler.GetHistory).Methods("GET")
	root.HandleFunc("/api/curator/rotate", curatorHandler.Rotate).Methods("POST")

	// Rules reference data
	rulesHandler := api.NewRulesHandler(st.Rules())
	root.HandleFunc("/api/rulesets/active", rulesHandler.GetActiveRuleset).Methods("GET")
	root.HandleFunc("/api/styles", rulesHandler.GetStyles).Methods("GET")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and the service-level
// aggregator, and binds the /api/health flag.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second, // generation calls can be slow
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
