package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"cardquery/internal/auth"
	"cardquery/internal/config"
	"cardquery/internal/domain/repositories"
	"cardquery/internal/domain/services"
	"cardquery/internal/handler"
	"cardquery/internal/middleware"
	"cardquery/internal/repository/memory"
	"cardquery/internal/repository/postgres"
	"cardquery/internal/repository/redisstore"
	"cardquery/internal/service/catalog"
	"cardquery/internal/service/completion"
	"cardquery/internal/service/convert"
	"cardquery/internal/service/license"
	"cardquery/internal/service/prompt"
	"cardquery/internal/service/ratelimit"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging, mirrored to a rotating file when LOG_DIR is set
	logger, closeLog, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"identity_store", cfg.IdentityStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	identityStore, closeStore, err := newIdentityStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create identity store: %v", err)
	}
	defer closeStore()

	// Catalog cache
	aliases, err := catalog.LoadAliases()
	if err != nil {
		log.Fatalf("Failed to load set aliases: %v", err)
	}
	catalogCache := catalog.NewCache(
		catalog.NewScryfallClientWithConfig(cfg.CatalogBaseURL, catalog.DefaultScryfallTimeout),
		logger,
		catalog.WithTTL(cfg.CatalogTTL),
		catalog.WithAliases(aliases),
	)

	// Prompt templates
	prompts, err := prompt.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}
	builder, err := prompts.Builder(cfg.PromptVersion)
	if err != nil {
		log.Fatalf("Failed to select prompt template: %v", err)
	}
	logger.Info("prompt template selected", "version", builder.Version(), "available", prompts.Versions())

	completer, err := completion.NewCompleter(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up completion provider: %v", err)
	}

	// Quota limiter with background sweep
	limiter := ratelimit.New(logger,
		ratelimit.WithMax(cfg.RateLimitMax),
		ratelimit.WithWindow(cfg.RateLimitWindow),
		ratelimit.WithSweepEvery(cfg.RateLimitSweepEvery),
	)
	limiter.Start(ctx)
	defer limiter.Close()

	// Services
	var mailer services.Mailer = license.NewLogMailer(logger)
	if cfg.ResendAPIKey != "" {
		mailer = license.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}
	if cfg.WebhookAllowUnsigned {
		logger.Warn("unsigned payment webhooks are accepted (NEVER use in production!)")
	}
	licenseService := license.NewService(identityStore, mailer, logger,
		license.WithWebhookSecret(cfg.WebhookSecret),
		license.WithUnsignedWebhooks(cfg.WebhookAllowUnsigned),
	)
	convertService := convert.NewService(licenseService, limiter, catalogCache, builder, completer, 0, logger)

	// Handlers
	convertHandler := handler.NewConvertHandler(convertService, limiter, logger)
	identityHandler := handler.NewIdentityHandler(licenseService, logger)
	webhookHandler := handler.NewWebhookHandler(licenseService, logger)
	healthHandler := handler.NewHealthHandler(licenseService, catalogCache, logger)
	adminHandler := handler.NewAdminHandler(catalogCache, licenseService, logger)

	ipStore := middleware.NewIPStore(cfg.IPRateRPS, cfg.IPRateBurst)
	ipStore.StartJanitor(ctx)
	perIP := middleware.IPRateLimit(ipStore, cfg.TrustProxy)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /convert", convertHandler.Convert)
	mux.Handle("POST /validate-identity", perIP(http.HandlerFunc(identityHandler.ValidateIdentity)))
	mux.Handle("GET /identity/by-session", perIP(http.HandlerFunc(identityHandler.BySession)))

	// Raw body; read and verified by the handler before any JSON parsing
	mux.HandleFunc("POST /webhook/payment-completed", webhookHandler.PaymentCompleted)

	if cfg.AdminJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.AdminJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer func() { _ = verifier.Close() }()

		admin := middleware.AdminAuth(verifier, logger)
		mux.Handle("POST /admin/catalog/refresh", admin(http.HandlerFunc(adminHandler.RefreshCatalog)))
		mux.Handle("POST /admin/identities", admin(http.HandlerFunc(adminHandler.ProvisionIdentity)))
	} else {
		logger.Info("admin routes disabled", "reason", "ADMIN_JWKS_URL not set")
	}

	// Build middleware chain
	// Order: CORS → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger, cfg.TrustProxy)(h)

	// CORS - outermost to answer OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Origins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{
			handler.HeaderRateLimitLimit,
			handler.HeaderRateLimitRemaining,
			handler.HeaderRateLimitReset,
		},
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newIdentityStore builds the store named by cfg.IdentityStore and returns a
// close func for its connections.
func newIdentityStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.IdentityStore, func(), error) {
	switch cfg.IdentityStore {
	case "postgres":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
		store := postgres.NewIdentityStore(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		return store, pool.Close, nil

	case "redis":
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("redis connected")
		return redisstore.NewIdentityStore(rdb, redisstore.WithPrefix("cardquery:"+cfg.Environment)),
			func() { _ = rdb.Close() }, nil

	case "memory":
		logger.Warn("in-memory identity store: licenses are lost on restart")
		return memory.NewIdentityStore(), func() {}, nil

	default:
		return nil, nil, errors.New("unknown IDENTITY_STORE: " + cfg.IdentityStore)
	}
}
