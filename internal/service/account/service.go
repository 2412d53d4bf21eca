package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/auth"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/repository"
)

// Service owns registration, login and email verification.
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

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     db.Role `json:"role"`
	Name     string  `json:"name"` // company or display name, role-dependent
}

type Session struct {
	Token     string  `json:"-"`
	UserID    uint64  `json:"userId"`
	Email     string  `json:"email"`
	Role      db.Role `json:"role"`
	Tier      db.Tier `json:"tier"`
	Verified  bool    `json:"verified"`
}

// Register creates a user with its role-dependent profile and sends a
// 6-digit verification code.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, httperr.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, httperr.Validation("password must be at least 8 characters")
	}
	if req.Role != db.RoleBusiness && req.Role != db.RoleInfluencer {
		return nil, httperr.Validation("role must be BUSINESS or INFLUENCER")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, httperr.Validation("name is required")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, httperr.Validation("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &db.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Tier:         db.TierFree,
		VerifyCode:   newVerifyCode(),
	}
	switch req.Role {
	case db.RoleBusiness:
		user.BusinessProfile = &db.BusinessProfile{CompanyName: name}
	case db.RoleInfluencer:
		user.InfluencerProfile = &db.InfluencerProfile{DisplayName: name}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.appCtx.Mailer.SendVerificationCode(user.Email, user.VerifyCode); err != nil {
		// account exists either way; the code can be re-sent
		s.appCtx.Logger.Error("verification mail failed", "user_id", user.ID, "err", err)
	}

	return s.newSession(user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a session.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, httperr.Validation("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.ErrUnauthorized
	} else if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, httperr.ErrUnauthorized
	}

	return s.newSession(user)
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify flips the user's verification flag when the code matches.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		return httperr.Validation("email and code are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound
	} else if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	if user.VerifyCode == "" || user.VerifyCode != code {
		return httperr.Validation("invalid verification code")
	}

	user.Verified = true
	user.VerifyCode = ""
	return s.userRepo.Save(ctx, user)
}

// Me returns the session view for an authenticated principal.
func (s *Service) Me(ctx context.Context, userID uint64) (*Session, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(user)
	if err != nil {
		return nil, err
	}
	sess.Token = "" // no re-issue on reads
	return sess, nil
}

func (s *Service) newSession(user *db.User) (*Session, error) {
	token, err := auth.IssueToken(s.appCtx.Cfg.Auth.JWTSecret, auth.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, s.appCtx.Cfg.Auth.CookieTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Session{
		Token:    token,
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Tier:     user.Tier,
		Verified: user.Verified,
	}, nil
}

// newVerifyCode returns a random 6-digit code.
func newVerifyCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}
