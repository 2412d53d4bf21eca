package profile

import (
	"fmt"
	"net/url"

	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
)

type Kind string

const (
	KindBusiness   Kind = "business"
	KindInfluencer Kind = "influencer"
)

// Resolved is the tagged union over the two role-dependent profiles.
// Exactly one of Business/Influencer is set, matching Kind.
type Resolved struct {
	Kind       Kind
	Name       string
	ImageURL   string
	Business   *db.BusinessProfile
	Influencer *db.InfluencerProfile
}

// Resolve is the single place role-based profile selection happens.
// The display image falls back to a generated avatar when none is set.
func Resolve(u *db.User) (*Resolved, error) {
	switch u.Role {
	case db.RoleBusiness:
		if u.BusinessProfile == nil {
			return nil, httperr.ErrNotFound
		}
		p := u.BusinessProfile
		return &Resolved{
			Kind:     KindBusiness,
			Name:     p.CompanyName,
			ImageURL: imageOrAvatar(p.LogoURL, p.CompanyName),
			Business: p,
		}, nil
	case db.RoleInfluencer:
		if u.InfluencerProfile == nil {
			return nil, httperr.ErrNotFound
		}
		p := u.InfluencerProfile
		return &Resolved{
			Kind:       KindInfluencer,
			Name:       p.DisplayName,
			ImageURL:   imageOrAvatar(p.AvatarURL, p.DisplayName),
			Influencer: p,
		}, nil
	default:
		return nil, fmt.Errorf("user %d has no swipeable profile (role %s)", u.ID, u.Role)
	}
}

func imageOrAvatar(imageURL, name string) string {
	if imageURL != "" {
		return imageURL
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}
