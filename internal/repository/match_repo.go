package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pingmatch/ping/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateWithNotifications atomically creates a match plus its fan-out
// notifications, in one transaction.
//
// Behavior:
//   - Insert uses ON CONFLICT DO NOTHING against the unique
//     (business_id, influencer_id) index. RowsAffected == 0 is the
//     authoritative "already matched" signal: two users swiping right on
//     each other near-simultaneously both reach this insert, and exactly
//     one of them wins.
//   - On a fresh insert, buildNotifications(matchID) is called and the
//     resulting rows are created in the same transaction, so neither
//     participant can end up without their MATCH notification.
//   - On the losing side of the race the existing match row is returned
//     with created == false and no notifications are written.
func (r *MatchRepository) CreateWithNotifications(
	ctx context.Context,
	businessID, influencerID uint64,
	buildNotifications func(matchID uint64) []db.Notification,
) (*db.Match, bool, error) {
	var match db.Match
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := db.Match{BusinessID: businessID, InfluencerID: influencerID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_id"}, {Name: "influencer_id"}},
			DoNothing: true,
		}).Create(&m)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// lost the race (or re-swipe after match): load the winner's row
			return tx.
				Where("business_id = ? AND influencer_id = ?", businessID, influencerID).
				First(&match).Error
		}

		created = true
		match = m

		if buildNotifications != nil {
			notifications := buildNotifications(m.ID)
			if len(notifications) > 0 {
				if err := tx.Create(&notifications).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &match, created, nil
}

// GetByID loads a single match.
func (r *MatchRepository) GetByID(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForUser returns every match the user participates in, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("business_id = ? OR influencer_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}
