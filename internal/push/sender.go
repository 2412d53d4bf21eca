package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pingmatch/ping/internal/db"
)

// ErrSubscriptionGone signals the push service answered 410: the
// subscription is dead and its row must be deleted.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Payload is the message shipped to a push endpoint.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Sender delivers a payload to a stored subscription.
type Sender interface {
	Send(ctx context.Context, sub *db.PushSubscription, p Payload) error
}

// LogSender is the development sender. It logs instead of delivering.
type LogSender struct {
	Log *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, sub *db.PushSubscription, p Payload) error {
	s.Log.Info("push (sender not configured)",
		"user_id", sub.UserID,
		"endpoint", sub.Endpoint,
		"title", p.Title,
	)
	return nil
}
