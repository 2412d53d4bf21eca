package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/repository"
)

// Service backs the admin moderation views and the support inbox.
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

type UserRow struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	Role     db.Role `json:"role"`
	Tier     db.Tier `json:"tier"`
	Verified bool    `json:"verified"`
}

// ListUsers returns the admin user table.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]UserRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	users, err := s.userRepo.ListAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{
			ID: u.ID, Email: u.Email, Role: u.Role, Tier: u.Tier, Verified: u.Verified,
		})
	}
	return rows, nil
}

// ListReports returns open reports first, newest within each status.
func (s *Service) ListReports(ctx context.Context, limit int) ([]db.Report, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var reports []db.Report
	err := s.appCtx.DB.WithContext(ctx).
		Order("status ASC, created_at DESC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

// ResolveReport closes a report.
func (s *Service) ResolveReport(ctx context.Context, reportID uint64) error {
	var report db.Report
	err := s.appCtx.DB.WithContext(ctx).First(&report, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound
	} else if err != nil {
		return err
	}
	if report.Status == "resolved" {
		return nil
	}
	now := time.Now()
	report.Status = "resolved"
	report.ResolvedAt = &now
	return s.appCtx.DB.WithContext(ctx).Save(&report).Error
}

// ListTickets returns the support inbox, newest first.
func (s *Service) ListTickets(ctx context.Context, limit int) ([]db.SupportTicket, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var tickets []db.SupportTicket
	err := s.appCtx.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}

type TicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateTicket files a support ticket for the caller.
func (s *Service) CreateTicket(ctx context.Context, userID uint64, req *TicketRequest) (*db.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if subject == "" || body == "" {
		return nil, httperr.Validation("subject and body are required")
	}
	ticket := &db.SupportTicket{
		UserID:  userID,
		Subject: subject,
		Body:    body,
		Status:  "open",
	}
	if err := s.appCtx.DB.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

type ReportRequest struct {
	ReportedID uint64 `json:"reportedId"`
	Reason     string `json:"reason"`
}

// CreateReport files a report against another user.
func (s *Service) CreateReport(ctx context.Context, reporterID uint64, req *ReportRequest) (*db.Report, error) {
	reason := strings.TrimSpace(req.Reason)
	if req.ReportedID == 0 || reason == "" {
		return nil, httperr.Validation("reportedId and reason are required")
	}
	if req.ReportedID == reporterID {
		return nil, httperr.Validation("cannot report yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, req.ReportedID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	report := &db.Report{
		ReporterID: reporterID,
		ReportedID: req.ReportedID,
		Reason:     reason,
		Status:     "open",
	}
	if err := s.appCtx.DB.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}
