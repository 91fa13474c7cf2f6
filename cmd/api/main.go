package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application"
	apprepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job"
	jobrepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/kv"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/utilities"
)

func main() {
	// best-effort: a missing .env just means real env vars are used
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	sugar.Infow("starting", "project", cfg.ProjectName, "version", cfg.Version, "environment", cfg.Environment)

	dbCfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	db := sqlx.NewDb(sqlDB, dbCfg.Driver)
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := userrepo.NewUserRepo(db)
	jobs := jobrepo.NewRepo(db)
	apps := apprepo.NewRepo(db)
	if err := ensureTables(ctx, users, jobs, apps); err != nil {
		sugar.Fatalf("ensure tables: %v", err)
	}

	rdb, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		// redis is optional; run without cache and sessions
		sugar.Warnw("redis unavailable", "err", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	hasher := auth.BcryptHasher{Cost: config.BcryptCost}
	codec := auth.NewTokenCodec(cfg.SecretKey)
	guard := auth.NewGuard(codec, sugar)

	opts := auth.Options{AccessTTL: cfg.AccessTokenTTL, RefreshTTL: cfg.RefreshTokenTTL}
	if rdb != nil {
		opts.Sessions = session.NewStore(rdb, cfg.RefreshTokenTTL)
	}
	authSvc, err := auth.NewService(users, codec, hasher, sugar, opts)
	if err != nil {
		sugar.Fatalf("auth service: %v", err)
	}
	userSvc := user.NewUserService(users, hasher, sugar)
	jobSvc := job.NewService(jobs, cache.New(rdb), sugar)
	appSvc := application.NewService(apps, sugar)

	if cfg.AdminConfigured() {
		bootstrapAdmin(ctx, sugar, userSvc, cfg)
	}

	handler := router.RegisterRoutes(sugar, router.Deps{
		Config:       cfg,
		DB:           db,
		Redis:        rdb,
		IDs:          utilities.NewIDGeneratorFromEnv(),
		Auth:         auth.NewHandler(authSvc, guard, sugar),
		Users:        user.NewHandler(userSvc, guard, sugar, cfg.DefaultPageSize, cfg.MaxPageSize),
		Jobs:         job.NewHandler(jobSvc, sugar, cfg.DefaultPageSize, cfg.MaxPageSize),
		Applications: application.NewHandler(appSvc, guard, sugar, cfg.DefaultPageSize, cfg.MaxPageSize),
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// ensureTables runs in dependency order: applications reference users and
// job_postings.
func ensureTables(ctx context.Context, tables ...tableEnsurer) error {
	for _, t := range tables {
		if err := t.EnsureTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapAdmin makes sure an administrator exists. Failure is logged and
// startup continues.
func bootstrapAdmin(ctx context.Context, logger *zap.SugaredLogger, svc *user.UserService, cfg config.Config) {
	changed, err := svc.EnsureAdmin(ctx, user.AdminAccount{
		Email:    cfg.AdminEmail,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		FullName: cfg.AdminFullName,
	})
	if err != nil {
		logger.Errorw("admin bootstrap failed", "err", err)
		return
	}
	if changed {
		logger.Infow("admin account ready", "username", cfg.AdminUsername)
	}
}
