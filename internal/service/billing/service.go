package billing

import (
	"context"
	"encoding/json"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/payments"
	"github.com/pingmatch/ping/internal/repository"
)

var validTiers = map[db.Tier]bool{
	db.TierPlus:     true,
	db.TierGold:     true,
	db.TierPlatinum: true,
}

// Service creates checkout sessions and applies webhook tier updates.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// Checkout asks the gateway for a session carrying userId and tier as
// metadata, and returns its redirect URL.
func (s *Service) Checkout(ctx context.Context, userID uint64, tier db.Tier) (*payments.CheckoutSession, error) {
	if !validTiers[tier] {
		return nil, httperr.Validation("tier must be plus, gold or platinum")
	}
	session, err := s.appCtx.Gateway.CreateCheckout(ctx, userID, tier)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("checkout session created",
		"user_id", userID, "tier", tier, "session", session.SessionID)
	return session, nil
}

// webhookEvent is the gateway callback body. Metadata carries the same
// userId/tier the checkout session was created with.
type webhookEvent struct {
	Status   string `json:"status"`
	Metadata struct {
		UserID uint64  `json:"userId"`
		Tier   db.Tier `json:"tier"`
	} `json:"metadata"`
}

// HandleWebhook verifies the signature and, on a successful payment,
// updates the user's tier.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !payments.VerifySignature(s.appCtx.Cfg.Billing.WebhookSecret, body, signature) {
		return httperr.ErrUnauthorized
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return httperr.Validation("malformed webhook body")
	}
	if event.Status != "paid" && event.Status != "succeeded" {
		// ignore non-terminal events
		return nil
	}
	if event.Metadata.UserID == 0 || !validTiers[event.Metadata.Tier] {
		return httperr.Validation("webhook metadata missing userId or tier")
	}

	if err := s.userRepo.UpdateTier(ctx, event.Metadata.UserID, event.Metadata.Tier); err != nil {
		return err
	}
	s.appCtx.Logger.Info("tier updated from webhook",
		"user_id", event.Metadata.UserID, "tier", event.Metadata.Tier)
	return nil
}
