package cmd

import (
	"context"

	"microcap-trading/config"
	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/middleware"
	"microcap-trading/pkg/postgres"
	"microcap-trading/pkg/telegram"
	"microcap-trading/pkg/validation"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	notifier  telegram.Notifier
}

// dependencyOption tweaks the configuration after it is loaded, before anything is built from it.
type dependencyOption func(cfg *config.Config)

func NewAppDependency(ctx context.Context, opts ...dependencyOption) (*AppDependency, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(cfg)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", logger.ErrorField(err))
		return nil, err
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to create telegram notifier", logger.ErrorField(err))
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.NewRequestLoggerMiddleware(log))
	e.Use(middleware.NewRateLimiterMiddleware(cfg.API.RateLimit, cfg.API.RateBurst))

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: validation.New(),
		db:        db,
		echo:      e,
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		notifier:  notifier,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	defer func() { _ = d.log.Sync() }()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
