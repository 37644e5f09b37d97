// Package main provides the entrypoint for the PrivacyGuard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/privacyguard/privacyguard/internal/api"
	"github.com/privacyguard/privacyguard/internal/api/middleware"
	"github.com/privacyguard/privacyguard/internal/auth"
	"github.com/privacyguard/privacyguard/internal/config"
	"github.com/privacyguard/privacyguard/internal/content"
	"github.com/privacyguard/privacyguard/internal/provider/resilience"
	"github.com/privacyguard/privacyguard/internal/session"
	"github.com/privacyguard/privacyguard/internal/telemetry"
	"github.com/privacyguard/privacyguard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName  = "privacyguard-api"
	jwtIssuer    = "privacyguard-api"
	jwtAudience  = "privacyguard-simulator"
	verifierName = "access-verifier"
)

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting PrivacyGuard API")

	if cfg.UsingDevSecrets() {
		log.Warn().Msg("using development signing key or access code - not secure for production")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.OTELEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	seed, err := cfg.Seed()
	if err != nil {
		log.Fatal().Err(err).Str("seed_file", cfg.SeedFile).Msg("failed to load seed")
	}

	sessions := session.NewService(session.ServiceConfig{
		Repository:  session.NewInMemoryRepository(),
		Seed:        seed,
		Logger:      log,
		Metrics:     session.NewMetrics(registry),
		IdleTTL:     cfg.SessionTTL,
		MaxSessions: cfg.SessionMax,
	})
	log.Info().
		Int("records", len(seed.Records)).
		Dur("idle_ttl", cfg.SessionTTL).
		Int("max_sessions", cfg.SessionMax).
		Msg("session service initialized")

	providers := resilience.NewRegistry()
	verifier, err := newVerifier(cfg, providers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize access code verifier")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     jwtIssuer,
		Audience:   jwtAudience,
	})

	authService := auth.NewService(auth.ServiceConfig{
		Verifier:   verifier,
		JWTService: jwtService,
		Sessions:   sessions,
		Logger:     log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		RequireTLS:  cfg.RequireTLS,
		Metrics:     httpMetrics,
		Gatherer:    registry,
		AuthService: authService,
		Sessions:    sessions,
		Catalog:     content.Default(),
		Providers:   providers,
	})

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sweeper := worker.NewSweepJob(worker.SweepJobConfig{
		Config:  worker.SweepConfig{Interval: cfg.SessionSweepInterval},
		Sweeper: sessions,
		Logger:  log.With().Str("job", "session-sweep").Logger(),
	})
	go sweeper.Run(sweeperCtx)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().
		Fields(sweeper.StatsSnapshot()).
		Msg("server stopped")
}

// newVerifier picks the access code source: a remote endpoint behind the
// resilient client, a bcrypt hash, or a plain code hashed at startup.
func newVerifier(cfg config.Config, providers *resilience.Registry, log zerolog.Logger) (auth.Verifier, error) {
	switch {
	case cfg.AccessCodeVerifyURL != "":
		client := resilience.NewClient(resilience.ClientConfig{
			Name:     verifierName,
			Timeout:  3 * time.Second,
			Registry: providers,
			Breaker: resilience.BreakerConfig{
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.Warn().
						Str("breaker", name).
						Str("from", from.String()).
						Str("to", to.String()).
						Msg("circuit breaker state changed")
				},
			},
		})
		log.Info().Str("url", cfg.AccessCodeVerifyURL).Msg("using remote access code verifier")
		return auth.NewRemoteVerifier(client, cfg.AccessCodeVerifyURL), nil
	case cfg.AccessCodeHash != "":
		log.Info().Msg("using bcrypt access code hash")
		return auth.NewBcryptVerifier(cfg.AccessCodeHash)
	default:
		return auth.NewBcryptVerifierFromCode(cfg.AccessCode)
	}
}
