package swipe_test

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
	"github.com/pingmatch/ping/internal/service/swipe"
)

// seedUsers inserts one business and two influencers, plus a standing
// like from the first influencer onto the business:
//
//   - user 1: Glow Cosmetics (BUSINESS)
//   - user 2: ava_creates (INFLUENCER), already liked user 1
//   - user 3: ben_vlogs (INFLUENCER), no swipes yet
func seedUsers(t *testing.T, gdb *gorm.DB) {
	t.Helper()

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
		require.NoError(t, gdb.Create(&users[i]).Error)
	}

	require.NoError(t, gdb.Create(&db.Swipe{SwiperID: 2, SwipedOnID: 1, Liked: true}).Error)
}

func setupService(t *testing.T) (*swipe.Service, *app.AppContext) {
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
	seedUsers(t, dbase)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger)
	return swipe.NewService(appCtx), appCtx
}

func matchCount(t *testing.T, appCtx *app.AppContext) int64 {
	t.Helper()
	var n int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&n).Error)
	return n
}

func matchNotifCount(t *testing.T, appCtx *app.AppContext, userID uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).
		Where("user_id = ? AND type = ?", userID, db.NotificationMatch).
		Count(&n).Error)
	return n
}

func TestSwipeNoMatchWithoutReciprocal(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// user 1 likes user 3, who has not swiped on user 1
	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 3, Direction: swipe.DirectionRight})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.IsMatch)
	assert.Equal(t, int64(0), matchCount(t, appCtx))

	var recorded db.Swipe
	require.NoError(t, appCtx.DB.
		Where("swiper_id = ? AND swiped_on_id = ?", 1, 3).
		First(&recorded).Error)
	assert.True(t, recorded.Liked)
}

func TestSwipeMutualCreatesMatchAndNotifications(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// user 2 already liked user 1 in the seed
	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionRight})
	require.NoError(t, err)

	assert.True(t, resp.IsMatch)
	assert.False(t, resp.AlreadyMatched)
	require.NotNil(t, resp.MatchData)
	assert.Equal(t, "ava_creates", resp.MatchData.Name)
	assert.NotEmpty(t, resp.MatchData.ImageURL)

	assert.Equal(t, int64(1), matchCount(t, appCtx))
	assert.Equal(t, int64(1), matchNotifCount(t, appCtx, 1))
	assert.Equal(t, int64(1), matchNotifCount(t, appCtx, 2))

	var match db.Match
	require.NoError(t, appCtx.DB.First(&match).Error)
	assert.Equal(t, uint64(1), match.BusinessID)
	assert.Equal(t, uint64(2), match.InfluencerID)
}

// TestSwipeSlotResolutionInfluencerLast checks that the match's role
// slots are fixed regardless of which side swiped last.
func TestSwipeSlotResolutionInfluencerLast(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// business likes influencer 3 first: no match yet
	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 3, Direction: swipe.DirectionRight})
	require.NoError(t, err)
	require.False(t, resp.IsMatch)

	// influencer 3 likes back: match, slots still business=1, influencer=3
	resp, err = svc.Swipe(ctx, 3, &swipe.Request{SwipedOnID: 1, Direction: swipe.DirectionRight})
	require.NoError(t, err)
	require.True(t, resp.IsMatch)
	assert.Equal(t, "Glow Cosmetics", resp.MatchData.Name)

	var match db.Match
	require.NoError(t, appCtx.DB.First(&match).Error)
	assert.Equal(t, uint64(1), match.BusinessID)
	assert.Equal(t, uint64(3), match.InfluencerID)
}

// TestSwipeAlreadyMatched covers the second mutual swipe after a match
// exists: reported as alreadyMatched with no duplicate rows.
func TestSwipeAlreadyMatched(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionRight})
	require.NoError(t, err)
	require.True(t, resp.IsMatch)
	require.False(t, resp.AlreadyMatched)

	resp, err = svc.Swipe(ctx, 2, &swipe.Request{SwipedOnID: 1, Direction: swipe.DirectionRight})
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)
	assert.True(t, resp.AlreadyMatched)

	assert.Equal(t, int64(1), matchCount(t, appCtx))
	assert.Equal(t, int64(1), matchNotifCount(t, appCtx, 1))
	assert.Equal(t, int64(1), matchNotifCount(t, appCtx, 2))
}

func TestSwipeLeftRecordsWithoutNotification(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// user 2 already liked user 1, but user 1 passes
	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionLeft})
	require.NoError(t, err)

	assert.False(t, resp.IsMatch)
	assert.Equal(t, int64(0), matchCount(t, appCtx))

	var notifCount int64
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).Count(&notifCount).Error)
	assert.Equal(t, int64(0), notifCount)
}

// TestSwipeChangeOfHeart: pass first, like later. One swipe row remains
// and mutuality is evaluated against the updated direction.
func TestSwipeChangeOfHeart(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	resp, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionLeft})
	require.NoError(t, err)
	require.False(t, resp.IsMatch)

	resp, err = svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionRight})
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)

	var swipeCount int64
	require.NoError(t, appCtx.DB.Model(&db.Swipe{}).
		Where("swiper_id = ? AND swiped_on_id = ?", 1, 2).
		Count(&swipeCount).Error)
	assert.Equal(t, int64(1), swipeCount)
}

func TestSwipeValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 0, Direction: swipe.DirectionRight})
	assert.Equal(t, 400, httperr.Status(err))

	_, err = svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: "up"})
	assert.Equal(t, 400, httperr.Status(err))

	_, err = svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 1, Direction: swipe.DirectionRight})
	assert.Equal(t, 400, httperr.Status(err))

	_, err = svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 999, Direction: swipe.DirectionRight})
	assert.Equal(t, 404, httperr.Status(err))
}

func TestSwipeQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	// burn the free tier's allowance
	for i := 0; i < 20; i++ {
		_, err := appCtx.RedisCache.IncrSwipeQuota(ctx, 1, time.Now())
		require.NoError(t, err)
	}

	_, err := svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 3, Direction: swipe.DirectionRight})
	require.Error(t, err)
	assert.Equal(t, 403, httperr.Status(err))
	assert.Equal(t, "daily swipe limit reached for your tier", httperr.Message(err))
}

func TestDiscoverExcludesSwipedAndSameRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// business has not swiped yet: both influencers show up
	candidates, err := svc.Discover(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// after deciding on user 2, only user 3 remains
	_, err = svc.Swipe(ctx, 1, &swipe.Request{SwipedOnID: 2, Direction: swipe.DirectionLeft})
	require.NoError(t, err)

	candidates, err = svc.Discover(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(3), candidates[0].UserID)

	// influencer sees only the business
	candidates, err = svc.Discover(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(1), candidates[0].UserID)
	assert.Equal(t, "Glow Cosmetics", candidates[0].Name)
}
