package profile

import (
	"context"
	"encoding/json"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/repository"
)

// Service owns profile reads and updates for the authenticated user.
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

// View is the profile payload returned to the client.
type View struct {
	UserID      uint64          `json:"userId"`
	Email       string          `json:"email"`
	Role        db.Role         `json:"role"`
	Tier        db.Tier         `json:"tier"`
	Verified    bool            `json:"verified"`
	Kind        Kind            `json:"kind"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"imageUrl"`
	Details     any             `json:"details"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

// Get returns the caller's resolved profile.
func (s *Service) Get(ctx context.Context, userID uint64) (*View, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolved, err := Resolve(user)
	if err != nil {
		return nil, err
	}

	view := &View{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Tier:     user.Tier,
		Verified: user.Verified,
		Kind:     resolved.Kind,
		Name:     resolved.Name,
		ImageURL: resolved.ImageURL,
	}
	if resolved.Business != nil {
		view.Details = resolved.Business
	} else {
		view.Details = resolved.Influencer
	}
	if user.Preferences != "" {
		view.Preferences = json.RawMessage(user.Preferences)
	}
	return view, nil
}

// UpdateRequest carries the writable profile fields. Nil fields are
// left untouched.
type UpdateRequest struct {
	CompanyName *string          `json:"companyName"`
	Industry    *string          `json:"industry"`
	Website     *string          `json:"website"`
	Description *string          `json:"description"`
	LogoURL     *string          `json:"logoUrl"`
	DisplayName *string          `json:"displayName"`
	Niche       *string          `json:"niche"`
	Bio         *string          `json:"bio"`
	AvatarURL   *string          `json:"avatarUrl"`
	Followers   *uint64          `json:"followers"`
	Preferences *json.RawMessage `json:"preferences"`
}

// Update applies the request to the caller's role-dependent profile.
func (s *Service) Update(ctx context.Context, userID uint64, req *UpdateRequest) (*View, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case db.RoleBusiness:
		if user.BusinessProfile == nil {
			return nil, httperr.ErrNotFound
		}
		p := user.BusinessProfile
		setString(&p.CompanyName, req.CompanyName)
		setString(&p.Industry, req.Industry)
		setString(&p.Website, req.Website)
		setString(&p.Description, req.Description)
		setString(&p.LogoURL, req.LogoURL)
		if p.CompanyName == "" {
			return nil, httperr.Validation("companyName must not be empty")
		}
		if err := s.appCtx.DB.WithContext(ctx).Save(p).Error; err != nil {
			return nil, err
		}
	case db.RoleInfluencer:
		if user.InfluencerProfile == nil {
			return nil, httperr.ErrNotFound
		}
		p := user.InfluencerProfile
		setString(&p.DisplayName, req.DisplayName)
		setString(&p.Niche, req.Niche)
		setString(&p.Bio, req.Bio)
		setString(&p.AvatarURL, req.AvatarURL)
		if req.Followers != nil {
			p.Followers = *req.Followers
		}
		if p.DisplayName == "" {
			return nil, httperr.Validation("displayName must not be empty")
		}
		if err := s.appCtx.DB.WithContext(ctx).Save(p).Error; err != nil {
			return nil, err
		}
	default:
		return nil, httperr.ErrForbidden
	}

	if req.Preferences != nil {
		user.Preferences = string(*req.Preferences)
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, userID)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
