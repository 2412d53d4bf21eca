package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingmatch/ping/internal/db"
)

func TestResolveBusiness(t *testing.T) {
	u := &db.User{
		ID:   1,
		Role: db.RoleBusiness,
		BusinessProfile: &db.BusinessProfile{
			CompanyName: "Glow Cosmetics",
			LogoURL:     "https://cdn.example.com/logo.png",
		},
	}

	r, err := Resolve(u)
	require.NoError(t, err)
	assert.Equal(t, KindBusiness, r.Kind)
	assert.Equal(t, "Glow Cosmetics", r.Name)
	assert.Equal(t, "https://cdn.example.com/logo.png", r.ImageURL)
	assert.NotNil(t, r.Business)
	assert.Nil(t, r.Influencer)
}

func TestResolveInfluencerAvatarFallback(t *testing.T) {
	u := &db.User{
		ID:                2,
		Role:              db.RoleInfluencer,
		InfluencerProfile: &db.InfluencerProfile{DisplayName: "ava creates"},
	}

	r, err := Resolve(u)
	require.NoError(t, err)
	assert.Equal(t, KindInfluencer, r.Kind)
	assert.Contains(t, r.ImageURL, "ui-avatars.com")
	assert.Contains(t, r.ImageURL, "ava+creates")
}

func TestResolveMissingProfile(t *testing.T) {
	_, err := Resolve(&db.User{ID: 3, Role: db.RoleBusiness})
	assert.Error(t, err)

	_, err = Resolve(&db.User{ID: 4, Role: db.RoleAdmin})
	assert.Error(t, err)
}
