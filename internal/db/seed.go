package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo businesses,
// influencers, swipes and a few materialized matches.
//
// Behavior:
//  1. Clears existing rows in every table.
//  2. Creates 5 businesses and 10 influencers with hashed passwords.
//  3. Generates swipes with ~70% likes; every 3rd business/influencer pair
//     is forced mutual and gets a match, both MATCH notifications, and a
//     greeting message.
func SeedTestData(gdb *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{
		"messages", "notifications", "matches", "swipes",
		"push_subscriptions", "reports", "support_tickets",
		"business_profiles", "influencer_profiles", "users",
	} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var businesses, influencers []User
	for i := 1; i <= 5; i++ {
		u := User{
			Email:        fmt.Sprintf("business%d@example.com", i),
			PasswordHash: string(hash),
			Role:         RoleBusiness,
			Verified:     true,
			Tier:         TierFree,
			BusinessProfile: &BusinessProfile{
				CompanyName: fmt.Sprintf("Acme Studio %d", i),
				Industry:    "consumer goods",
			},
		}
		if err := gdb.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed business: %w", err)
		}
		businesses = append(businesses, u)
	}
	for i := 1; i <= 10; i++ {
		u := User{
			Email:        fmt.Sprintf("influencer%d@example.com", i),
			PasswordHash: string(hash),
			Role:         RoleInfluencer,
			Verified:     true,
			Tier:         TierFree,
			InfluencerProfile: &InfluencerProfile{
				DisplayName: fmt.Sprintf("creator_%d", i),
				Niche:       "lifestyle",
				Followers:   uint64(1000 * (i + r.Intn(50))),
			},
		}
		if err := gdb.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed influencer: %w", err)
		}
		influencers = append(influencers, u)
	}
	log.Printf("Seeded %d businesses and %d influencers.", len(businesses), len(influencers))

	admin := User{
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		Verified:     true,
		Tier:         TierPlatinum,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	upsertSwipe := func(swiperID, swipedOnID uint64, liked bool) error {
		return gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "swiped_on_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).Create(&Swipe{SwiperID: swiperID, SwipedOnID: swipedOnID, Liked: liked}).Error
	}

	counter := 0
	for _, b := range businesses {
		for _, inf := range influencers {
			liked := r.Intn(100) < 70

			// every 3rd pair becomes a guaranteed mutual match
			if counter%3 == 0 {
				if err := upsertSwipe(b.ID, inf.ID, true); err != nil {
					return err
				}
				if err := upsertSwipe(inf.ID, b.ID, true); err != nil {
					return err
				}
				if err := seedMatch(gdb, &b, &inf); err != nil {
					return err
				}
			} else if err := upsertSwipe(b.ID, inf.ID, liked); err != nil {
				return err
			}
			counter++
		}
	}
	log.Printf("Seeded %d swipe pairs.", counter)

	return nil
}

func seedMatch(gdb *gorm.DB, business, influencer *User) error {
	match := Match{BusinessID: business.ID, InfluencerID: influencer.ID}
	res := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "influencer_id"}},
		DoNothing: true,
	}).Create(&match)
	if res.Error != nil {
		return fmt.Errorf("failed to seed match: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	related := match.ID
	notifications := []Notification{
		{
			UserID:    business.ID,
			Type:      NotificationMatch,
			Content:   fmt.Sprintf("You matched with %s!", influencer.InfluencerProfile.DisplayName),
			RelatedID: &related,
		},
		{
			UserID:    influencer.ID,
			Type:      NotificationMatch,
			Content:   fmt.Sprintf("You matched with %s!", business.BusinessProfile.CompanyName),
			RelatedID: &related,
		},
	}
	if err := gdb.Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to seed notifications: %w", err)
	}

	greeting := Message{
		MatchID:    match.ID,
		SenderID:   business.ID,
		ReceiverID: influencer.ID,
		Content:    "Hi! We love your content and would like to work together.",
	}
	if err := gdb.Create(&greeting).Error; err != nil {
		return fmt.Errorf("failed to seed message: %w", err)
	}
	return nil
}
