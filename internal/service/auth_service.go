package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/xolanidube/mzansi-market-sub000/config"
	"github.com/xolanidube/mzansi-market-sub000/internal/auth"
	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("invalid role")
)

type AuthService struct {
	cfg      *config.Config
	userRepo UserStore
}

func NewAuthService(cfg *config.Config, userRepo UserStore) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// Register creates a CLIENT or PROVIDER account. Admin accounts are seeded,
// never self-registered.
func (s *AuthService) Register(ctx context.Context, email, username, password, role string) (*models.User, string, string, error) {
	if role != domain.RoleClient && role != domain.RoleProvider {
		return nil, "", "", ErrInvalidRole
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) issueTokens(u *models.User) (*models.User, string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, "", "", err
	}
	return u, access, refresh, nil
}
