// Command connelaide-api is the Connelaide backend: a REST API over the
// transaction ledger, authenticated against Auth0 bearer tokens.
//
// Usage:
//
//	connelaide-api            run the server
//	connelaide-api migrate    apply schema migrations and exit
//	connelaide-api seed       populate development fixtures and exit
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/connelaide/connelaide-api/adapters/gin/handlers"
	"github.com/connelaide/connelaide-api/auth0"
	core "github.com/connelaide/connelaide-api/core"
	"github.com/connelaide/connelaide-api/jobs"
	jwtkit "github.com/connelaide/connelaide-api/jwt"
	"github.com/connelaide/connelaide-api/ratelimit"
	memorylimiter "github.com/connelaide/connelaide-api/ratelimit/memory"
	redislimiter "github.com/connelaide/connelaide-api/ratelimit/redis"
	"github.com/connelaide/connelaide-api/secrets"
	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

func main() {
	log := logrus.New()

	cfg, err := core.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if cfg.IsProd() {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := secrets.NewResolver(cfg.AWSRegion).
		DatabaseURL(ctx, cfg.DBSecretName, cfg.DatabaseURL, cfg.IsProd())
	if err != nil {
		log.WithError(err).Fatal("resolve database credentials")
	}

	db, err := pgstore.Connect(ctx, dsn, !cfg.IsProd())
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer db.Close()

	if err := db.Migrate(ctx, log); err != nil {
		log.WithError(err).Fatal("migrate database")
	}
	store := pgstore.NewStore(db.Bun)

	switch cmd := command(); cmd {
	case "migrate":
		return
	case "seed":
		if err := store.Seed(ctx, log); err != nil {
			log.WithError(err).Fatal("seed database")
		}
		return
	case "serve":
	default:
		log.Fatalf("unknown command %q", cmd)
	}

	verifier, err := jwtkit.NewVerifier(jwtkit.Options{
		JWKSURL:      cfg.Auth0.JWKSURL(),
		Issuer:       cfg.Auth0.Issuer,
		Audience:     cfg.Auth0.Audience,
		Algorithms:   cfg.Auth0.Algorithms,
		CacheTTL:     cfg.Auth0.CacheTTL,
		Skew:         cfg.Auth0.Skew,
		FetchTimeout: cfg.Auth0.FetchTimeout,
		Logger:       log,
	})
	if err != nil {
		log.WithError(err).Fatal("build token verifier")
	}
	// Warm the key cache so the first request doesn't pay the fetch.
	if _, err := verifier.KeyCache().Keys(ctx); err != nil {
		log.WithError(err).Warn("jwks warm-up failed; will retry on first request")
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter = redislimiter.New(rdb, ratelimit.Defaults())
	} else {
		limiter = memorylimiter.New(ratelimit.Defaults())
	}

	runner, err := jobs.NewRunner(ctx, db.Pool, store, log)
	if err != nil {
		log.WithError(err).Fatal("build job runner")
	}
	if err := runner.Start(ctx); err != nil {
		log.WithError(err).Fatal("start job runner")
	}

	scheduler, err := jobs.NewScheduler(runner, cfg.SyncSchedule, log)
	if err != nil {
		log.WithError(err).Fatal("build sync scheduler")
	}
	scheduler.Start()

	var mgmt *auth0.ManagementClient
	if cfg.Management.Enabled() {
		mgmt = auth0.NewManagementClient(ctx, cfg.Auth0.Domain, cfg.Management.ClientID, cfg.Management.ClientSecret)
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Verifier: verifier,
		Store:    store,
		Runner:   runner,
		Mgmt:     mgmt,
		Limiter:  limiter,
		Origins:  cfg.AllowedOrigins,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	scheduler.Stop()
	if err := runner.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("job runner shutdown")
	}
}

func command() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "serve"
}
