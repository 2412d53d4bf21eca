package swipe

import (
	"context"

	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/service/profile"
)

// Candidate is one swipeable profile in the discover feed.
type Candidate struct {
	UserID   uint64       `json:"userId"`
	Kind     profile.Kind `json:"kind"`
	Name     string       `json:"name"`
	ImageURL string       `json:"imageUrl"`
	Details  any          `json:"details"`
}

// Discover returns verified opposite-role users the caller has not
// swiped on yet.
func (s *Service) Discover(ctx context.Context, userID uint64, limit int) ([]Candidate, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var targetRole db.Role
	switch user.Role {
	case db.RoleBusiness:
		targetRole = db.RoleInfluencer
	case db.RoleInfluencer:
		targetRole = db.RoleBusiness
	default:
		return nil, httperr.ErrForbidden
	}

	seen, err := s.swipeRepo.SwipedOnIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListCandidates(ctx, userID, targetRole, seen, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(users))
	for i := range users {
		resolved, err := profile.Resolve(&users[i])
		if err != nil {
			// profile not filled in yet; nothing to show
			continue
		}
		c := Candidate{
			UserID:   users[i].ID,
			Kind:     resolved.Kind,
			Name:     resolved.Name,
			ImageURL: resolved.ImageURL,
		}
		if resolved.Business != nil {
			c.Details = resolved.Business
		} else {
			c.Details = resolved.Influencer
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
