package notify_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/cache"
	"github.com/pingmatch/ping/internal/config"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/push"
	"github.com/pingmatch/ping/internal/service/notify"
)

// goneSender fails every delivery with ErrSubscriptionGone.
type goneSender struct{ calls int }

func (s *goneSender) Send(ctx context.Context, sub *db.PushSubscription, p push.Payload) error {
	s.calls++
	return push.ErrSubscriptionGone
}

// okSender records deliveries.
type okSender struct{ sent []uint64 }

func (s *okSender) Send(ctx context.Context, sub *db.PushSubscription, p push.Payload) error {
	s.sent = append(s.sent, sub.UserID)
	return nil
}

func setupService(t *testing.T) (*notify.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return notify.NewService(appCtx), appCtx
}

func seedNotifications(t *testing.T, gdb *gorm.DB, userID uint64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, gdb.Create(&db.Notification{
			UserID:  userID,
			Type:    db.NotificationMessage,
			Content: fmt.Sprintf("notification %d", i),
		}).Error)
	}
}

func TestListAndUnreadCountCache(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedNotifications(t, appCtx.DB, 1, 3)

	// first call falls back to DB and warms the cache
	resp, err := svc.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Notifications, 3)
	assert.Equal(t, int64(3), resp.UnreadCount)

	cached, err := appCtx.RedisCache.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cached)

	// second call is served from the cache
	resp, err = svc.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.UnreadCount)
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedNotifications(t, appCtx.DB, 1, 2)
	seedNotifications(t, appCtx.DB, 2, 1)

	require.NoError(t, svc.MarkAllRead(ctx, 1))

	var unread int64
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", 1, false).
		Count(&unread).Error)
	assert.Equal(t, int64(0), unread)

	// other users' notifications are untouched
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", 2, false).
		Count(&unread).Error)
	assert.Equal(t, int64(1), unread)

	cached, err := appCtx.RedisCache.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached)
}

func TestSubscribeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	req := &notify.SubscribeRequest{Endpoint: "https://push.example.com/ep1", P256dh: "k", Auth: "a"}
	require.NoError(t, svc.Subscribe(ctx, 1, req))
	require.NoError(t, svc.Subscribe(ctx, 1, req))

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSweepDeliversAndPrunes(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	seedNotifications(t, appCtx.DB, 1, 2)
	require.NoError(t, appCtx.DB.Create(&db.PushSubscription{
		UserID: 1, Endpoint: "https://push.example.com/live",
	}).Error)

	sender := &okSender{}
	appCtx.Push = sender

	result, err := svc.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Deleted)
	assert.Len(t, sender.sent, 2)
}

func TestSweepDeletesGoneSubscriptions(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	seedNotifications(t, appCtx.DB, 1, 1)
	require.NoError(t, appCtx.DB.Create(&db.PushSubscription{
		UserID: 1, Endpoint: "https://push.example.com/dead",
	}).Error)

	appCtx.Push = &goneSender{}

	result, err := svc.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Deleted)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
