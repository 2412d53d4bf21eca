package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/db"
)

// UserRepository provides data access methods for the User model and its
// role-dependent profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// GetByID loads a user with both profile associations.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Preload("BusinessProfile").
		Preload("InfluencerProfile").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail loads a user by email with both profile associations.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Preload("BusinessProfile").
		Preload("InfluencerProfile").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Save persists changes to an existing user row.
func (r *UserRepository) Save(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// UpdateTier sets the user's subscription tier, used by the billing webhook.
func (r *UserRepository) UpdateTier(ctx context.Context, userID uint64, tier db.Tier) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Update("tier", tier)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCandidates returns verified users of the given role that the swiper
// has not decided on yet, oldest account first.
func (r *UserRepository) ListCandidates(
	ctx context.Context,
	swiperID uint64,
	role db.Role,
	excludeIDs []uint64,
	limit int,
) ([]db.User, error) {
	var users []db.User
	query := r.db.WithContext(ctx).
		Preload("BusinessProfile").
		Preload("InfluencerProfile").
		Where("role = ? AND verified = ? AND id <> ?", role, true, swiperID).
		Order("id ASC").
		Limit(limit)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	err := query.Find(&users).Error
	return users, err
}

// ListAll returns every user, for the admin view.
func (r *UserRepository) ListAll(ctx context.Context, limit int) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Preload("BusinessProfile").
		Preload("InfluencerProfile").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
