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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	tokenrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/token/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/migrations"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	// best-effort: a missing .env just means the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.InitLogger(utilities.LogConfig{
		Level:  cfg.Log.Level,
		Dev:    !cfg.IsProduction(),
		Silent: cfg.Env == config.EnvTest,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting auth service", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, sugar)
	if err != nil {
		if cfg.IsProduction() {
			sugar.Fatalw("failed to connect to the database", "err", err)
		}
		sugar.Errorw("failed to connect to the database, using in-memory stores", "err", err)
		st = memoryStores()
	}
	defer st.close()

	ids, err := utilities.NewIDGenerator(cfg.Security.SnowflakeNode)
	if err != nil {
		sugar.Fatalw("id generator", "err", err)
	}
	users := user.NewUserService(st.users, user.BcryptHasher{Cost: cfg.Security.BcryptCost}, ids)
	issuer := token.NewIssuer(cfg.Token)
	svc := auth.NewService(users, issuer, st.refresh, sugar)

	limiter := router.NewRateLimiter(cfg.Security.RateLimitPerMinute)
	handler, err := router.RegisterRoutes(sugar, cfg, auth.NewHandler(svc, cfg, sugar), limiter)
	if err != nil {
		sugar.Fatalw("mount routes", "err", err)
	}

	go limiter.Run(ctx, time.Minute)
	go token.NewSweeper(st.refresh, cfg.Token.SweepInterval, sugar).Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		sugar.Infof("server running: http://localhost:%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Warn("server shutdown")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

type stores struct {
	users   userrepo.UserStore
	refresh token.RefreshStore
	close   func()
}

func memoryStores() *stores {
	return &stores{
		users:   userrepo.NewMemoryUserRepo(),
		refresh: tokenrepo.NewMemoryRefreshRepo(),
		close:   func() {},
	}
}

// openStores connects the backend named by DATABASE_URL and prepares its schema.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*stores, error) {
	if cfg.Database.IsMongo() {
		client, db, err := database.ConnectMongo(database.MongoConfig{
			URI:     cfg.Database.URL,
			DBName:  cfg.Database.Name,
			AppName: "auth-service",
			Timeout: cfg.Database.Timeout,
		})
		if err != nil {
			return nil, err
		}
		users := userrepo.NewMongoUserRepo(db)
		refresh := tokenrepo.NewMongoRefreshRepo(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("user indexes: %w", err)
		}
		if err := refresh.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("token indexes: %w", err)
		}
		logger.Infow("mongodb connected", "db", cfg.Database.Name)
		return &stores{
			users:   users,
			refresh: refresh,
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warnw("mongodb disconnect failed", "err", err)
				}
			},
		}, nil
	}

	db, err := database.ConnectPostgres(database.PostgresConfig{
		DSN:      cfg.Database.URL,
		MaxConns: 10,
		Timeout:  cfg.Database.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("postgres connected, migrations applied")
	return &stores{
		users:   userrepo.NewUserRepo(db),
		refresh: tokenrepo.NewRefreshRepo(db),
		close: func() {
			if err := db.Close(); err != nil {
				logger.Warnw("db close failed", "err", err)
			}
		},
	}, nil
}
