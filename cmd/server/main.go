package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ad-orchestrator/internal/adsession"
	"ad-orchestrator/internal/orchestrator"
	"ad-orchestrator/internal/platform/config"
	"ad-orchestrator/internal/platform/logger"
	"ad-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	rateLimitRPM := config.GetEnvInt("RATE_LIMIT_RPM", 600)

	defaults := adsession.Config{
		RequestTimeout:         config.GetEnvDuration("REQUEST_TIMEOUT", adsession.DefaultRequestTimeout),
		RetryBudget:            config.GetEnvInt("RETRY_BUDGET", adsession.DefaultRetryBudget),
		AlwaysStartWithPreroll: config.GetEnvBool("ALWAYS_START_WITH_PREROLL", false),
	}

	log := logger.New(logLevel, logFormat)

	repo := orchestrator.NewInMemoryRepository()
	met := metrics.New()
	svc := orchestrator.NewService(repo, defaults, log, met)
	h := orchestrator.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Use(httprate.LimitByIP(rateLimitRPM, time.Minute))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/request", h.RequestAds)
			r.Post("/signals", h.Signal)
			r.Post("/delivery", h.Delivery)
			r.Get("/events", h.GetEvents)
			r.Post("/destroy", h.DestroySession)
		})
	})

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"rate_limit_rpm", rateLimitRPM,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
