package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/metisnation/registry/handler"
	"github.com/metisnation/registry/modules/account"
	"github.com/metisnation/registry/modules/profile"
	"github.com/metisnation/registry/pkg/clientip"
	"github.com/metisnation/registry/pkg/config"
	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/pkg/email"
	"github.com/metisnation/registry/pkg/environment"
	"github.com/metisnation/registry/pkg/httpserver"
	"github.com/metisnation/registry/pkg/logger"
	"github.com/metisnation/registry/pkg/pg"
	"github.com/metisnation/registry/pkg/ratelimiter"
	"github.com/metisnation/registry/pkg/redis"
	"github.com/metisnation/registry/pkg/requestid"
	"github.com/metisnation/registry/svc/auth"
	"github.com/metisnation/registry/svc/identity"
	"github.com/metisnation/registry/svc/registry"
)

type appConfig struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`
	Name          string        `env:"APP_NAME" envDefault:"registry"`
	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("registry stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	env := environment.Parse(app.Env)

	log := logger.New(
		logger.WithEnvironment(env, app.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var (
		httpCfg     httpserver.Config
		pgCfg       pg.Config
		ipCfg       clientip.Config
		cookieCfg   cookie.Config
		identityCfg identity.Config
		emailCfg    email.Config
		limitCfg    ratelimiter.Config
		accountCfg  account.Config
		profileCfg  profile.Config
	)
	if err := errors.Join(
		config.Load(&httpCfg),
		config.Load(&pgCfg),
		config.Load(&ipCfg),
		config.Load(&cookieCfg),
		config.Load(&identityCfg),
		config.Load(&emailCfg),
		config.Load(&limitCfg),
		config.Load(&accountCfg),
		config.Load(&profileCfg),
	); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, registry.Migrations(), log); err != nil {
		return err
	}

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}
	sessions := auth.NewSessionStore(cookies)

	idp, err := identity.New(ctx, identityCfg)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	var mailer email.Sender
	if emailCfg.PostmarkServerToken != "" {
		if mailer, err = email.NewPostmarkSender(emailCfg); err != nil {
			return fmt.Errorf("email sender: %w", err)
		}
	} else {
		log.WarnContext(ctx, "postmark is not configured, writing emails to disk", slog.String("dir", emailCfg.DevDir))
		mailer = email.NewDevSender(emailCfg.DevDir)
	}

	repo := registry.NewRepository(pool)
	policy := limitCfg.Policy()

	accountOpts := []account.ServiceOption{
		account.WithLogger(log),
		account.WithRegistry(repo),
		account.WithMailer(mailer),
		account.WithPolicy(policy),
	}
	switch limitCfg.Store {
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		checks["redis"] = redis.Healthcheck(client)
		accountOpts = append(accountOpts, account.WithRateLimitStore(
			account.DeviceRateLimits(ratelimiter.NewRedisStore(client, policy.Staleness)),
		))
	case "memory":
		store := ratelimiter.NewMemoryStore(ratelimiter.WithEntryTTL(policy.Staleness))
		defer store.Close()
		accountOpts = append(accountOpts, account.WithRateLimitStore(account.DeviceRateLimits(store)))
	case "", "cookie":
	default:
		return fmt.Errorf("unknown RATELIMIT_STORE %q", limitCfg.Store)
	}

	errorHandler := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{})
	accountOpts = append(accountOpts, account.WithErrorHandler(errorHandler))

	accounts := account.NewService(accountCfg, idp, cookies, sessions, accountOpts...)

	profiles := profile.NewService(profileCfg, idp, repo, cookies, sessions,
		profile.WithLogger(log),
		profile.WithErrorHandler(errorHandler),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware(ipCfg), environment.Middleware(env))
	r.Get("/health", httpserver.HealthHandler(log, app.HealthTimeout, checks))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, profileCfg.BasePath, http.StatusSeeOther)
	})
	r.Mount("/", account.Router(account.RouterOptions{
		Auth:        accounts,
		AuthPath:    accountCfg.BasePath,
		Profile:     profiles,
		ProfilePath: profileCfg.BasePath,
	}))

	server := httpserver.NewFromConfig(httpCfg, r, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		// Pending welcome emails finish before the pool closes.
		accounts.Close()
		return nil
	})
	return g.Wait()
}
