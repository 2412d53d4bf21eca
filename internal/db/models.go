package db

import (
	"time"
)

type Role string

const (
	RoleBusiness   Role = "BUSINESS"
	RoleInfluencer Role = "INFLUENCER"
	RoleAdmin      Role = "ADMIN"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierPlus     Tier = "plus"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type NotificationType string

const (
	NotificationMatch   NotificationType = "MATCH"
	NotificationMessage NotificationType = "MESSAGE"
	NotificationSystem  NotificationType = "SYSTEM"
)

// User table. Owns at most one role-dependent profile.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         Role      `gorm:"size:16;not null;index"`
	Verified     bool      `gorm:"default:false"`
	VerifyCode   string    `gorm:"size:8"`
	Tier         Tier      `gorm:"size:16;not null;default:free"`
	Preferences  string    `gorm:"type:text"` // opaque JSON blob, client-owned
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	BusinessProfile   *BusinessProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	InfluencerProfile *InfluencerProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type BusinessProfile struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"uniqueIndex;not null"`
	CompanyName string    `gorm:"size:128;not null"`
	Industry    string    `gorm:"size:64"`
	Website     string    `gorm:"size:255"`
	Description string    `gorm:"type:text"`
	LogoURL     string    `gorm:"size:512"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type InfluencerProfile struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"uniqueIndex;not null"`
	DisplayName string    `gorm:"size:128;not null"`
	Niche       string    `gorm:"size:64"`
	Bio         string    `gorm:"type:text"`
	AvatarURL   string    `gorm:"size:512"`
	Followers   uint64    `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Swipe represents a directional like/pass from swiper to swiped-on user.
//
// Composite PK: (SwiperID, SwipedOnID)
//   - Ensures a single row per ordered pair (re-swipe overwrites direction).
//
// Indexes:
//   - idx_swiper_swiped_liked(swiper_id, swiped_on_id, liked)
//     Optimizes the O(1) reverse lookup the mutual-like check performs.
type Swipe struct {
	SwiperID   uint64    `gorm:"primaryKey;index:idx_swiper_swiped_liked,priority:1"`
	SwipedOnID uint64    `gorm:"primaryKey;index:idx_swiper_swiped_liked,priority:2"`
	Liked      bool      `gorm:"not null;index:idx_swiper_swiped_liked,priority:3"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Match materializes a confirmed mutual like between one business and one
// influencer. The unique index on the pair is what makes concurrent
// mutual swipes safe: the second insert is a no-op, not a duplicate row.
type Match struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	BusinessID   uint64    `gorm:"not null;uniqueIndex:idx_business_influencer,priority:1"`
	InfluencerID uint64    `gorm:"not null;uniqueIndex:idx_business_influencer,priority:2"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Business   User `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	Influencer User `gorm:"foreignKey:InfluencerID;constraint:OnDelete:CASCADE"`
}

// HasUser reports whether the given user occupies either slot of the match.
func (m *Match) HasUser(userID uint64) bool {
	return m.BusinessID == userID || m.InfluencerID == userID
}

// OtherParticipant returns the counterpart of the given user in the match.
func (m *Match) OtherParticipant(userID uint64) (uint64, bool) {
	switch userID {
	case m.BusinessID:
		return m.InfluencerID, true
	case m.InfluencerID:
		return m.BusinessID, true
	}
	return 0, false
}

// Message belongs to exactly one match and is immutable once created.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID    uint64    `gorm:"not null;index:idx_match_created,priority:1"`
	SenderID   uint64    `gorm:"not null"`
	ReceiverID uint64    `gorm:"not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_match_created,priority:2"`

	Match Match `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

// Notification is an in-app event record addressed to a single user.
// RelatedID points at a match when the type is MATCH or MESSAGE.
type Notification struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement"`
	UserID    uint64           `gorm:"not null;index"`
	Type      NotificationType `gorm:"size:16;not null;index"`
	Content   string           `gorm:"size:255;not null"`
	RelatedID *uint64
	IsRead    bool      `gorm:"default:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type Report struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ReporterID uint64    `gorm:"not null;index"`
	ReportedID uint64    `gorm:"not null;index"`
	Reason     string    `gorm:"type:text;not null"`
	Status     string    `gorm:"size:16;not null;default:open"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ResolvedAt *time.Time
}

type SupportTicket struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Subject   string    `gorm:"size:255;not null"`
	Body      string    `gorm:"type:text;not null"`
	Status    string    `gorm:"size:16;not null;default:open"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PushSubscription stores a browser push endpoint. A 410 from the push
// service means the row must be deleted.
type PushSubscription struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Endpoint  string    `gorm:"size:512;uniqueIndex;not null"`
	P256dh    string    `gorm:"size:255"`
	Auth      string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
