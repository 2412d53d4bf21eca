package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/repository"
	"github.com/pingmatch/ping/internal/service/profile"
)

// MaxMessageLength caps a single chat message.
const MaxMessageLength = 2000

// Service is the conversation store: an append-only message log per
// match, with participant-only access.
type Service struct {
	appCtx    *app.AppContext
	matchRepo *repository.MatchRepository
	msgRepo   *repository.MessageRepository
	notifRepo *repository.NotificationRepository
	userRepo  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		msgRepo:   repository.NewMessageRepository(appCtx.DB),
		notifRepo: repository.NewNotificationRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
	}
}

// MatchView is one entry in the caller's match list.
type MatchView struct {
	MatchID   uint64    `json:"matchId"`
	UserID    uint64    `json:"userId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	MatchedAt time.Time `json:"matchedAt"`
}

// ListMatches returns the caller's matches with counterpart display data.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]MatchView, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		otherID, ok := matches[i].OtherParticipant(userID)
		if !ok {
			continue
		}
		other, err := s.userRepo.GetByID(ctx, otherID)
		if err != nil {
			s.appCtx.Logger.Warn("match counterpart missing", "match_id", matches[i].ID, "user_id", otherID)
			continue
		}
		resolved, err := profile.Resolve(other)
		if err != nil {
			continue
		}
		views = append(views, MatchView{
			MatchID:   matches[i].ID,
			UserID:    otherID,
			Name:      resolved.Name,
			ImageURL:  resolved.ImageURL,
			MatchedAt: matches[i].CreatedAt,
		})
	}
	return views, nil
}

// MessageView is one message tagged relative to the requester.
type MessageView struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	Mine      bool      `json:"mine"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListMessages returns a match's messages oldest-first, each tagged
// mine/theirs for the requester.
//
// Fails with Forbidden unless the requester is one of the match's two
// participants.
func (s *Service) ListMessages(
	ctx context.Context,
	matchID, requesterID uint64,
	paginationToken *string,
	limit int,
) ([]MessageView, *string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if !match.HasUser(requesterID) {
		return nil, nil, httperr.ErrForbidden
	}

	messages, nextToken, err := s.msgRepo.ListByMatch(ctx, matchID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, MessageView{
			ID:        m.ID,
			Content:   m.Content,
			Mine:      m.SenderID == requesterID,
			CreatedAt: m.CreatedAt,
		})
	}
	return views, nextToken, nil
}

// SendMessage appends a message to the match and notifies the receiver.
//
// Behavior:
//   - Empty content → ValidationError. Non-participant → Forbidden.
//     Missing match → NotFound.
//   - The receiver is always "the other participant".
//   - The MESSAGE notification is best-effort: a failed insert is logged
//     and the send still succeeds.
func (s *Service) SendMessage(ctx context.Context, matchID, senderID uint64, content string) (*MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, httperr.Validation("message content must not be empty")
	}
	if len(content) > MaxMessageLength {
		return nil, httperr.Validation("message content too long")
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	receiverID, ok := match.OtherParticipant(senderID)
	if !ok {
		return nil, httperr.ErrForbidden
	}

	msg := &db.Message{
		MatchID:    matchID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyReceiver(ctx, match, senderID, receiverID)

	return &MessageView{
		ID:        msg.ID,
		Content:   msg.Content,
		Mine:      true,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (s *Service) notifyReceiver(ctx context.Context, match *db.Match, senderID, receiverID uint64) {
	senderName := "your match"
	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		if resolved, err := profile.Resolve(sender); err == nil {
			senderName = resolved.Name
		}
	}

	related := match.ID
	notification := &db.Notification{
		UserID:    receiverID,
		Type:      db.NotificationMessage,
		Content:   fmt.Sprintf("New message from %s", senderName),
		RelatedID: &related,
	}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		s.appCtx.Logger.Error("message notification failed",
			"match_id", match.ID, "receiver", receiverID, "err", err)
		return
	}
	s.appCtx.RedisCache.IncrUnreadCount(ctx, receiverID)
}

func (s *Service) loadMatch(ctx context.Context, matchID uint64) (*db.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return match, nil
}
