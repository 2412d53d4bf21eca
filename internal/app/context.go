package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/cache"
	"github.com/pingmatch/ping/internal/config"
	"github.com/pingmatch/ping/internal/mail"
	"github.com/pingmatch/ping/internal/payments"
	"github.com/pingmatch/ping/internal/push"
)

// AppContext holds shared dependencies (DB, Redis, Logger, external
// collaborators) and is handed to every service.
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Mailer     mail.Mailer
	Push       push.Sender
	Gateway    payments.Gateway
}

// New creates a new AppContext.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Mailer:     mail.New(cfg, logger),
		Push:       &push.LogSender{Log: logger},
		Gateway:    &payments.HostedGateway{BaseURL: cfg.Billing.CheckoutBase},
	}
}
