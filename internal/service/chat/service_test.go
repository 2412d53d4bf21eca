package chat_test

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
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/service/chat"
)

// setupService seeds a matched business/influencer pair (users 1 and 2)
// plus an outsider influencer (user 3) who is party to no match.
func setupService(t *testing.T) (*chat.Service, *app.AppContext) {
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

	users := []db.User{
		{
			ID: 1, Email: "glow@test.com", PasswordHash: "x",
			Role: db.RoleBusiness, Verified: true, Tier: db.TierFree,
			BusinessProfile: &db.BusinessProfile{CompanyName: "Glow Cosmetics"},
		},
		{
			ID: 2, Email: "ava@test.com", PasswordHash: "x",
			Role: db.RoleInfluencer, Verified: true, Tier: db.TierFree,
			InfluencerProfile: &db.InfluencerProfile{DisplayName: "ava_creates"},
		},
		{
			ID: 3, Email: "ben@test.com", PasswordHash: "x",
			Role: db.RoleInfluencer, Verified: true, Tier: db.TierFree,
			InfluencerProfile: &db.InfluencerProfile{DisplayName: "ben_vlogs"},
		},
	}
	for i := range users {
		require.NoError(t, dbase.Create(&users[i]).Error)
	}
	require.NoError(t, dbase.Create(&db.Match{ID: 1, BusinessID: 1, InfluencerID: 2}).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return chat.NewService(appCtx), appCtx
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	msg, err := svc.SendMessage(ctx, 1, 1, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", msg.Content)
	assert.True(t, msg.Mine)

	var stored db.Message
	require.NoError(t, appCtx.DB.First(&stored).Error)
	assert.Equal(t, uint64(1), stored.SenderID)
	assert.Equal(t, uint64(2), stored.ReceiverID)

	// exactly one MESSAGE notification, addressed to the receiver
	var notifications []db.Notification
	require.NoError(t, appCtx.DB.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, uint64(2), notifications[0].UserID)
	assert.Equal(t, db.NotificationMessage, notifications[0].Type)
	require.NotNil(t, notifications[0].RelatedID)
	assert.Equal(t, uint64(1), *notifications[0].RelatedID)
}

func TestSendMessageAccessControl(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// user 3 is not a participant
	_, err := svc.SendMessage(ctx, 1, 3, "let me in")
	assert.Equal(t, 403, httperr.Status(err))

	// empty content
	_, err = svc.SendMessage(ctx, 1, 1, "   ")
	assert.Equal(t, 400, httperr.Status(err))

	// missing match
	_, err = svc.SendMessage(ctx, 99, 1, "hello?")
	assert.Equal(t, 404, httperr.Status(err))
}

func TestListMessagesTagging(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.SendMessage(ctx, 1, 1, "Hi Ava")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, "Hi Glow")
	require.NoError(t, err)

	// from the business's perspective
	messages, next, err := svc.ListMessages(ctx, 1, 1, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi Ava", messages[0].Content)
	assert.True(t, messages[0].Mine)
	assert.False(t, messages[1].Mine)

	// from the influencer's perspective the tags flip
	messages, _, err = svc.ListMessages(ctx, 1, 2, nil, 0)
	require.NoError(t, err)
	assert.False(t, messages[0].Mine)
	assert.True(t, messages[1].Mine)
}

func TestListMessagesAccessControl(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.ListMessages(ctx, 1, 3, nil, 0)
	assert.Equal(t, 403, httperr.Status(err))

	_, _, err = svc.ListMessages(ctx, 99, 1, nil, 0)
	assert.Equal(t, 404, httperr.Status(err))
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	views, err := svc.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, uint64(1), views[0].MatchID)
	assert.Equal(t, uint64(2), views[0].UserID)
	assert.Equal(t, "ava_creates", views[0].Name)

	views, err = svc.ListMatches(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, views, 0)
}
