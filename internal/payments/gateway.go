// Package payments wraps the external checkout providers. The providers
// themselves are collaborators: this package only owns the session
// contract and webhook signature verification.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/pingmatch/ping/internal/db"
)

// CheckoutSession is what a gateway hands back for a tier purchase.
// The caller redirects the user to URL; the webhook closes the loop.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Gateway creates checkout sessions carrying userId and tier as metadata.
type Gateway interface {
	CreateCheckout(ctx context.Context, userID uint64, tier db.Tier) (*CheckoutSession, error)
}

// HostedGateway builds redirect URLs against a hosted checkout page.
// It stands in for either provider; both share the session contract.
type HostedGateway struct {
	BaseURL string
}

func (g *HostedGateway) CreateCheckout(ctx context.Context, userID uint64, tier db.Tier) (*CheckoutSession, error) {
	id := uuid.NewString()
	return &CheckoutSession{
		SessionID: id,
		URL:       fmt.Sprintf("%s?session=%s&user=%d&tier=%s", g.BaseURL, id, userID, tier),
	}, nil
}

// VerifySignature checks the webhook body against its HMAC-SHA256
// signature header. An empty secret disables verification (dev only).
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
