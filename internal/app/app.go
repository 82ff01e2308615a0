// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FlockCS/BookClub/internal/apiclient"
	"github.com/FlockCS/BookClub/internal/archive"
	"github.com/FlockCS/BookClub/internal/books"
	"github.com/FlockCS/BookClub/internal/buildinfo"
	"github.com/FlockCS/BookClub/internal/commands"
	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/ctxutil"
	"github.com/FlockCS/BookClub/internal/dictionary"
	"github.com/FlockCS/BookClub/internal/discord"
	"github.com/FlockCS/BookClub/internal/genai"
	"github.com/FlockCS/BookClub/internal/interaction"
	"github.com/FlockCS/BookClub/internal/lifecycle"
	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/r2client"
	"github.com/FlockCS/BookClub/internal/ratelimit"
	"github.com/FlockCS/BookClub/internal/sentry"
	"github.com/FlockCS/BookClub/internal/storage"
	"github.com/FlockCS/BookClub/internal/webhook"
	"github.com/FlockCS/BookClub/internal/workflow"
)

// Announcement quota per guild. Generated text beyond it falls back to the
// template.
const (
	announceBurst      = 3
	announceRefillRate = 1.0 / 3600
	announceDailyLimit = 20
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg             *config.Config
	logger          *logger.Logger
	db              *storage.DB
	metrics         *metrics.Metrics
	registry        *prometheus.Registry
	bus             *lifecycle.Bus
	announcer       *genai.Announcer
	userLimiter     *ratelimit.KeyedLimiter
	announceLimiter *ratelimit.KeyedLimiter
	exporter        *archive.Exporter // nil when R2 export is disabled
	webhookHandler  *webhook.Handler
	router          *gin.Engine
	server          *http.Server
	wg              sync.WaitGroup // Track background goroutines for graceful shutdown
}

// deps are the external endpoints Initialize connects to. Tests substitute
// fakes.
type deps struct {
	session   discord.Session
	objects   r2client.Store // nil disables history export
	logOutput io.Writer
	now       func() time.Time // nil uses time.Now
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	session, err := discord.NewSession(cfg.DiscordBotToken)
	if err != nil {
		return nil, err
	}

	var objects r2client.Store
	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("r2: %w", err)
		}
		objects = client
	}

	if cfg.Sentry.Enabled {
		release := cfg.Sentry.Release
		if release == "" {
			release = buildinfo.Release()
		}
		if err := sentry.Initialize(sentry.Config{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          release,
			SampleRate:       cfg.Sentry.SampleRate,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
	}

	return build(ctx, cfg, deps{session: session, objects: objects, logOutput: os.Stdout})
}

func build(ctx context.Context, cfg *config.Config, d deps) (*Application, error) {
	var betterStackToken string
	if cfg.BetterStackEnabled {
		betterStackToken = cfg.BetterStackToken
	}
	log := logger.NewWithOptions(cfg.LogLevel, d.logOutput, logger.Options{
		BetterStackToken:    betterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "bookclub").WithField("release", buildinfo.Release())
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog calls (lifecycle subscribers, genai) pick up the
	// context values through the default logger.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if betterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	publicKey, err := decodePublicKey(cfg.DiscordPublicKey)
	if err != nil {
		return nil, err
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), storage.Options{
		SelectionTTL: cfg.SelectionTTL,
		PendingTTL:   cfg.PendingTTL,
		Clock:        d.now,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).
		WithField("selection_ttl", cfg.SelectionTTL).
		WithField("pending_ttl", cfg.PendingTTL).
		Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	booksClient := books.NewClient(apiclient.New(apiclient.Config{
		Service:    "google_books",
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		RateRPS:    cfg.API.RateRPS,
		Burst:      int(cfg.API.RateRPS) + 1,
		UserAgent:  "BookClub/" + buildinfo.Release(),
		Metrics:    m,
	}), cfg.API.GoogleBooksBaseURL, cfg.API.GoogleBooksAPIKey)
	dictionaryClient := dictionary.NewClient(apiclient.New(apiclient.Config{
		Service:    "dictionary",
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		RateRPS:    cfg.API.RateRPS,
		Burst:      int(cfg.API.RateRPS) + 1,
		UserAgent:  "BookClub/" + buildinfo.Release(),
		Metrics:    m,
	}), cfg.API.DictionaryBaseURL)

	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.RateLimit.UserBurst,
		RefillRate:    cfg.RateLimit.UserRefillRate,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
	announceLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "announcement",
		Burst:         announceBurst,
		RefillRate:    announceRefillRate,
		DailyLimit:    announceDailyLimit,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	llmCfg := genai.Config{}
	if cfg.LLM.AnnouncementsEnabled {
		llmCfg = genai.Config{
			GeminiAPIKey:       cfg.LLM.GeminiAPIKey,
			GeminiModels:       cfg.LLM.GeminiModels,
			HuggingFaceToken:   cfg.LLM.HuggingFaceToken,
			HuggingFaceBaseURL: cfg.LLM.HuggingFaceBaseURL,
			HuggingFaceModels:  cfg.LLM.HuggingFaceModels,
		}
	}
	announcer, err := genai.NewAnnouncer(ctx, llmCfg, m, announceLimiter)
	if err != nil {
		log.WithError(err).Warn("Announcement writers unavailable; using template")
		announcer, _ = genai.NewAnnouncer(ctx, genai.Config{}, m, announceLimiter)
	}
	if announcer.Enabled() {
		log.Info("Generated announcements enabled")
	}

	bus, err := lifecycle.NewBus(lifecycle.DefaultBusConfig(), log.Logger, m)
	if err != nil {
		return nil, fmt.Errorf("lifecycle bus: %w", err)
	}
	messenger := discord.NewMessenger(d.session)
	bus.Subscribe("discussion_threads", lifecycle.DiscussionThreads(messenger, cfg.Discussion.ThreadChannelID))
	bus.Subscribe("announcements", lifecycle.Announcements(announcer, messenger, cfg.Discussion.AnnounceChannelID))

	events := discord.NewEventScheduler(d.session, discord.EventConfig{
		Location:       cfg.Location(),
		Hour:           cfg.Discussion.Hour,
		Duration:       cfg.Discussion.EventDuration,
		VoiceChannelID: cfg.Discussion.VoiceChannelID,
		ExternalPlace:  cfg.Discussion.EventLocation,
	}, m)

	wf := workflow.New(workflow.Config{
		Store:           db,
		Events:          events,
		Publisher:       bus,
		ModeratorRoleID: cfg.ModeratorRoleID,
		Location:        cfg.Location(),
		Now:             d.now,
		Metrics:         m,
		Logger:          log,
	})

	cmds := commands.NewHandler(commands.Config{
		Searcher: booksClient,
		Definer:  dictionaryClient,
		Store:    db,
		Workflow: wf,
		Logger:   log,
	})

	interactionRouter := interaction.NewRouter(interaction.RouterConfig{
		Commands:    cmds.Commands(),
		Workflow:    wf,
		UserLimiter: userLimiter,
		Metrics:     m,
		Logger:      log,
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		PublicKey:  publicKey,
		Dispatcher: interactionRouter,
		Metrics:    m,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	var exporter *archive.Exporter
	if d.objects != nil {
		exporter, err = archive.NewExporter(archive.Config{
			History: db,
			Objects: d.objects,
			Prefix:  cfg.R2.HistoryPrefix,
			LockKey: cfg.R2.LockKey,
			LockTTL: cfg.R2.LockTTL,
			Metrics: m,
			Logger:  log,
			Now:     d.now,
		})
		if err != nil {
			return nil, fmt.Errorf("history export: %w", err)
		}
		log.WithField("bucket", cfg.R2.BucketName).Info("History export enabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	app := &Application{
		cfg:             cfg,
		logger:          log,
		db:              db,
		metrics:         m,
		registry:        registry,
		bus:             bus,
		announcer:       announcer,
		userLimiter:     userLimiter,
		announceLimiter: announceLimiter,
		exporter:        exporter,
		webhookHandler:  webhookHandler,
		router:          router,
	}

	router.GET("/", app.redirectToProject)
	router.GET("/livez", app.livenessCheck)
	router.HEAD("/livez", app.livenessCheck)
	router.GET("/readyz", app.readinessCheck)
	router.HEAD("/readyz", app.readinessCheck)
	router.POST("/interactions", webhookHandler.Handle)
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsAuthEnabled, cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// decodePublicKey parses the hex-encoded application public key.
func decodePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("discord public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord public key: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func (a *Application) redirectToProject(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, a.cfg.ProjectURL)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) getFeatures() map[string]bool {
	return map[string]bool{
		"announcements":     a.announcer.Enabled(),
		"discussion_thread": a.cfg.Discussion.ThreadChannelID != "",
		"history_export":    a.exporter != nil,
		"error_reporting":   sentry.IsEnabled(),
	}
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"version":  buildinfo.Release(),
		"features": a.getFeatures(),
	})
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context to stop background jobs
//  3. Wait for background jobs to complete (cleanup, history export)
//  4. Close resources in order (HTTP server, webhook handler, lifecycle bus,
//     database, rate limiters, logger)
//
// The database outlives the jobs and the lifecycle subscribers that use it.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Ensure context is always canceled

	if err := a.bus.Start(ctx); err != nil {
		return fmt.Errorf("lifecycle bus: %w", err)
	}
	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	// Wait for shutdown signal
	sig := a.waitForShutdownSignal()

	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	// Step 1: Cancel context to signal all background jobs to stop
	cancel()

	// Step 2: Wait for all background goroutines to finish
	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	// Step 3: Perform graceful shutdown (HTTP server, resources)
	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.selectionCleanup(ctx)
	})
	if a.exporter != nil {
		a.wg.Go(func() {
			a.historyExport(ctx)
		})
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown performs graceful shutdown of HTTP server and resources.
// It must run after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for in-flight interactions to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	a.closeResources(shutdownCtx)
	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	return nil
}

// closeResources releases everything build acquired.
func (a *Application) closeResources(ctx context.Context) {
	a.logger.Info("Closing resources...")

	if err := a.bus.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "lifecycle_bus").Error("Component close error")
	}

	if err := a.announcer.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "announcer").Error("Component close error")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	a.userLimiter.Stop()
	a.announceLimiter.Stop()

	if err := a.logger.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
}

// runEvery runs job after initialDelay and then every interval until ctx
// is canceled.
func (a *Application) runEvery(ctx context.Context, name string, initialDelay, interval time.Duration, job func(context.Context)) {
	a.logger.WithField("job", name).Debug("Background job started")
	defer a.logger.WithField("job", name).Debug("Background job stopped")

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			job(ctx)
			timer.Reset(interval)
		}
	}
}

// selectionCleanup sweeps expired search results and pending selections.
func (a *Application) selectionCleanup(ctx context.Context) {
	a.runEvery(ctx, "selection_cleanup", config.SelectionCleanupInitialDelay, a.cfg.CleanupInterval, a.runSelectionCleanup)
}

// runSelectionCleanup performs one TTL sweep.
func (a *Application) runSelectionCleanup(ctx context.Context) {
	start := time.Now()

	counts, err := a.db.DeleteExpired(ctx)
	duration := time.Since(start)
	if err != nil {
		a.logger.WithError(err).Error("Selection cleanup failed")
		a.metrics.RecordJob("selection_cleanup", "error", duration.Seconds())
		return
	}

	a.metrics.RecordExpiredRows("search_results", counts.SearchResults)
	a.metrics.RecordExpiredRows("pending_selections", counts.PendingSelections)
	a.metrics.RecordJob("selection_cleanup", "success", duration.Seconds())

	a.logger.WithField("search_results", counts.SearchResults).
		WithField("pending_selections", counts.PendingSelections).
		WithField("duration_ms", duration.Milliseconds()).
		Debug("Selection cleanup completed")
}

// historyExport uploads finished-book history to object storage.
func (a *Application) historyExport(ctx context.Context) {
	a.runEvery(ctx, "history_export", config.SelectionCleanupInitialDelay, a.cfg.R2.ExportInterval, a.runHistoryExport)
}

// runHistoryExport performs one export run across all guilds.
func (a *Application) runHistoryExport(ctx context.Context) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, config.HistoryExportJob)
	defer cancel()

	res, err := a.exporter.Run(runCtx)
	duration := time.Since(start)
	switch {
	case err != nil:
		a.logger.WithError(err).Error("History export failed")
		sentry.CaptureExceptionWithContext(ctx, err)
		a.metrics.RecordJob("history_export", "error", duration.Seconds())
	case res.Skipped:
		a.metrics.RecordJob("history_export", "skipped", duration.Seconds())
	default:
		a.metrics.RecordJob("history_export", "success", duration.Seconds())
		a.logger.WithField("guilds", res.Guilds).
			WithField("objects", res.Objects).
			WithField("duration_ms", duration.Milliseconds()).
			Info("History export completed")
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// requestIDHeaders are checked in order for an upstream request ID.
var requestIDHeaders = []string{"X-Request-Id", "X-Correlation-Id"}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug.
// Requests without an upstream ID get a generated one.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		var requestID string
		for _, h := range requestIDHeaders {
			if requestID = c.GetHeader(h); requestID != "" {
				break
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-Id", requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("client_ip", c.ClientIP()).
			WithRequestID(requestID)

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400 && status != 404:
			entry.Warn("HTTP request rejected")
		case status == 404:
			entry.Debug("HTTP request not found")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
