package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/registration-service/internal/auth"
	"github.com/spec-kit/registration-service/internal/config"
	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/repository"
)

// AdminService coordinates operator login and the review queue.
type AdminService struct {
	admins        repository.AdminRepository
	registrations repository.RegistrationRepository
	tokenMgr      *auth.TokenManager
}

// AdminDependencies encapsulates repo requirements for the admin surface.
type AdminDependencies struct {
	AdminRepo        repository.AdminRepository
	RegistrationRepo repository.RegistrationRepository
}

// NewAdminService builds the service.
func NewAdminService(cfg config.AuthConfig, deps AdminDependencies) *AdminService {
	return &AdminService{
		admins:        deps.AdminRepo,
		registrations: deps.RegistrationRepo,
		tokenMgr:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// Login authenticates an operator and returns a session JWT.
func (s *AdminService) Login(ctx context.Context, email, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	if !admin.Active {
		return nil, "", time.Time{}, errors.New("admin disabled")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return admin, token, exp, nil
}

// ListPending returns registrations awaiting a decision.
func (s *AdminService) ListPending(ctx context.Context) ([]domain.Registration, error) {
	return s.registrations.ListByStatus(ctx, domain.RegistrationPending)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AdminService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
