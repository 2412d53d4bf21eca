package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pingmatch/ping/internal/db"
)

// SwipeRepository provides data access methods for the Swipe model.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// CreateOrUpdateSwipe inserts or updates the swipe swiper -> swipedOn.
//
// Behavior:
//   - If the (swiper_id, swiped_on_id) pair exists → the row is updated
//     with the new "liked" value (the user changed their mind).
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK ensures the overwrite guarantee.
func (r *SwipeRepository) CreateOrUpdateSwipe(
	ctx context.Context,
	swiperID, swipedOnID uint64,
	liked bool,
) error {
	swipe := db.Swipe{
		SwiperID:   swiperID,
		SwipedOnID: swipedOnID,
		Liked:      liked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "swiped_on_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&swipe).Error
}

// HasLiked checks whether swiper has a standing like on swipedOn.
// This is the reverse lookup the mutual-like check performs.
func (r *SwipeRepository) HasLiked(
	ctx context.Context,
	swiperID, swipedOnID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND swiped_on_id = ? AND liked = ?", swiperID, swipedOnID, true).
		Count(&count).Error
	return count > 0, err
}

// SwipedOnIDs returns every user the swiper has already decided on,
// used to exclude them from the discover feed.
func (r *SwipeRepository) SwipedOnIDs(ctx context.Context, swiperID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ?", swiperID).
		Pluck("swiped_on_id", &ids).Error
	return ids, err
}
