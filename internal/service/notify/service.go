package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/push"
	"github.com/pingmatch/ping/internal/repository"
)

// Service owns in-app notifications and the push fan-out sweep.
type Service struct {
	appCtx    *app.AppContext
	notifRepo *repository.NotificationRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		notifRepo: repository.NewNotificationRepository(appCtx.DB),
	}
}

type View struct {
	ID        uint64              `json:"id"`
	Type      db.NotificationType `json:"type"`
	Content   string              `json:"content"`
	RelatedID *uint64             `json:"relatedId,omitempty"`
	IsRead    bool                `json:"isRead"`
	CreatedAt time.Time           `json:"createdAt"`
}

type ListResponse struct {
	Notifications []View `json:"notifications"`
	UnreadCount   int64  `json:"unreadCount"`
}

// List returns the user's notifications plus the unread count.
// Count is cache-first: Redis with a 1h TTL, DB on miss.
func (s *Service) List(ctx context.Context, userID uint64, limit int) (*ListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	notifications, err := s.notifRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.appCtx.RedisCache.GetUnreadCount(ctx, userID)
	if err != nil || unread < 0 {
		unread, err = s.notifRepo.CountUnread(ctx, userID)
		if err != nil {
			return nil, err
		}
		_ = s.appCtx.RedisCache.SetUnreadCount(ctx, userID, unread)
	}

	views := make([]View, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, View{
			ID:        n.ID,
			Type:      n.Type,
			Content:   n.Content,
			RelatedID: n.RelatedID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return &ListResponse{Notifications: views, UnreadCount: unread}, nil
}

// MarkAllRead flips the user's unread notifications and resets the
// cached counter.
func (s *Service) MarkAllRead(ctx context.Context, userID uint64) error {
	if err := s.notifRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	_ = s.appCtx.RedisCache.ResetUnreadCount(ctx, userID)
	return nil
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe stores a push subscription for the user. Re-subscribing the
// same endpoint is a no-op.
func (s *Service) Subscribe(ctx context.Context, userID uint64, req *SubscribeRequest) error {
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return httperr.Validation("endpoint is required")
	}

	sub := db.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   req.P256dh,
		Auth:     req.Auth,
	}
	err := s.appCtx.DB.WithContext(ctx).Create(&sub).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return nil
	}
	return err
}

type SweepResult struct {
	Sent    int `json:"sent"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Sweep pushes unread notifications to every subscription of their
// recipients. Subscriptions answered with "gone" are deleted. Triggered
// externally (cron), not scheduled in-process.
func (s *Service) Sweep(ctx context.Context, batch int) (*SweepResult, error) {
	if batch <= 0 || batch > 500 {
		batch = 100
	}

	notifications, err := s.notifRepo.ListUnreadWithSubscriptions(ctx, batch)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for i := range notifications {
		n := &notifications[i]

		var subs []db.PushSubscription
		if err := s.appCtx.DB.WithContext(ctx).
			Where("user_id = ?", n.UserID).
			Find(&subs).Error; err != nil {
			return result, err
		}

		payload := push.Payload{
			Title: string(n.Type),
			Body:  n.Content,
		}
		for j := range subs {
			err := s.appCtx.Push.Send(ctx, &subs[j], payload)
			switch {
			case errors.Is(err, push.ErrSubscriptionGone):
				if delErr := s.appCtx.DB.WithContext(ctx).Delete(&subs[j]).Error; delErr != nil {
					s.appCtx.Logger.Error("failed to delete dead subscription",
						"subscription_id", subs[j].ID, "err", delErr)
				} else {
					result.Deleted++
				}
			case err != nil:
				result.Failed++
				s.appCtx.Logger.Warn("push delivery failed",
					"subscription_id", subs[j].ID, "err", err)
			default:
				result.Sent++
			}
		}
	}
	return result, nil
}
