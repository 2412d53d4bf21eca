package swipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/repository"
	"github.com/pingmatch/ping/internal/service/profile"
)

const (
	DirectionLeft  = "left"
	DirectionRight = "right"
)

// Daily swipe allowance by tier. Zero means unlimited.
var quotaByTier = map[db.Tier]int64{
	db.TierFree: 20,
	db.TierPlus: 100,
}

// Service records swipes and detects mutual matches.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
	}
}

// Request is the swipe payload: who, and which way.
type Request struct {
	SwipedOnID uint64 `json:"swipedOnId"`
	Direction  string `json:"direction"`
}

// MatchData is the display payload for the immediate "It's a match!" UI.
type MatchData struct {
	MatchID  uint64 `json:"matchId"`
	UserID   uint64 `json:"userId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type Response struct {
	Success        bool       `json:"success"`
	IsMatch        bool       `json:"isMatch"`
	AlreadyMatched bool       `json:"alreadyMatched,omitempty"`
	MatchData      *MatchData `json:"matchData,omitempty"`
}

// Swipe records the swiper's decision and, on a right swipe, checks for
// mutuality and materializes the match.
//
// Behavior:
//   - Upserts the (swiper, swipedOn) row; a re-swipe overwrites direction.
//   - A left swipe emits no notification and never matches.
//   - On a right swipe, the reverse lookup decides mutuality. A mutual
//     like creates the match row and both MATCH notifications in one
//     transaction; the unique pair index makes concurrent mutual swipes
//     collapse onto a single match, reported as alreadyMatched to the
//     loser of the race.
func (s *Service) Swipe(ctx context.Context, swiperID uint64, req *Request) (*Response, error) {
	s.appCtx.Logger.Debug("Swipe called",
		"swiper", swiperID, "swiped_on", req.SwipedOnID, "direction", req.Direction)

	if req.SwipedOnID == 0 {
		return nil, httperr.Validation("swipedOnId is required")
	}
	if req.Direction != DirectionLeft && req.Direction != DirectionRight {
		return nil, httperr.Validation("direction must be left or right")
	}
	if req.SwipedOnID == swiperID {
		return nil, httperr.Validation("cannot swipe on yourself")
	}

	swiper, err := s.userRepo.GetByID(ctx, swiperID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, req.SwipedOnID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, swiper); err != nil {
		return nil, err
	}

	liked := req.Direction == DirectionRight
	if err := s.swipeRepo.CreateOrUpdateSwipe(ctx, swiperID, req.SwipedOnID, liked); err != nil {
		return nil, err
	}

	if !liked {
		return &Response{Success: true, IsMatch: false}, nil
	}

	// mutual check: does the target have a standing like on the swiper?
	mutual, err := s.swipeRepo.HasLiked(ctx, req.SwipedOnID, swiperID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return &Response{Success: true, IsMatch: false}, nil
	}

	return s.createMatch(ctx, swiper, target)
}

// createMatch resolves the business/influencer slots, creates the match
// plus its notifications, and builds the counterpart display payload.
func (s *Service) createMatch(ctx context.Context, swiper, target *db.User) (*Response, error) {
	businessID, influencerID, ok := resolveSlots(swiper, target)
	if !ok {
		// mutual like between same-role users cannot occupy the slots
		s.appCtx.Logger.Warn("mutual like between incompatible roles",
			"swiper", swiper.ID, "swiper_role", swiper.Role,
			"target", target.ID, "target_role", target.Role)
		return &Response{Success: true, IsMatch: false}, nil
	}

	swiperProfile, err := profile.Resolve(swiper)
	if err != nil {
		return nil, err
	}
	targetProfile, err := profile.Resolve(target)
	if err != nil {
		return nil, err
	}

	match, created, err := s.matchRepo.CreateWithNotifications(
		ctx, businessID, influencerID,
		func(matchID uint64) []db.Notification {
			related := matchID
			return []db.Notification{
				{
					UserID:    swiper.ID,
					Type:      db.NotificationMatch,
					Content:   fmt.Sprintf("You matched with %s!", targetProfile.Name),
					RelatedID: &related,
				},
				{
					UserID:    target.ID,
					Type:      db.NotificationMatch,
					Content:   fmt.Sprintf("You matched with %s!", swiperProfile.Name),
					RelatedID: &related,
				},
			}
		},
	)
	if err != nil {
		return nil, err
	}

	if created {
		s.appCtx.RedisCache.IncrUnreadCount(ctx, swiper.ID)
		s.appCtx.RedisCache.IncrUnreadCount(ctx, target.ID)
		s.appCtx.Logger.Info("match created",
			"match_id", match.ID, "business", businessID, "influencer", influencerID)
	}

	return &Response{
		Success:        true,
		IsMatch:        true,
		AlreadyMatched: !created,
		MatchData: &MatchData{
			MatchID:  match.ID,
			UserID:   target.ID,
			Name:     targetProfile.Name,
			ImageURL: targetProfile.ImageURL,
		},
	}, nil
}

// resolveSlots maps the pair onto the match's fixed role slots,
// regardless of which side initiated the final swipe.
func resolveSlots(a, b *db.User) (businessID, influencerID uint64, ok bool) {
	switch {
	case a.Role == db.RoleBusiness && b.Role == db.RoleInfluencer:
		return a.ID, b.ID, true
	case a.Role == db.RoleInfluencer && b.Role == db.RoleBusiness:
		return b.ID, a.ID, true
	}
	return 0, 0, false
}

// checkQuota counts the swipe against the user's daily allowance.
// Counter errors are logged and ignored; quota is best-effort, the way
// the rest of the cache layer is.
func (s *Service) checkQuota(ctx context.Context, user *db.User) error {
	limit, limited := quotaByTier[user.Tier]
	if !limited {
		return nil
	}
	n, err := s.appCtx.RedisCache.IncrSwipeQuota(ctx, user.ID, time.Now())
	if err != nil {
		s.appCtx.Logger.Warn("swipe quota counter unavailable", "err", err)
		return nil
	}
	if n > limit {
		return httperr.Forbidden("daily swipe limit reached for your tier")
	}
	return nil
}
