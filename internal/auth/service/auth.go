package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/joaofarinelli/we-crm-sub002/internal/auth/jwt"
	"github.com/joaofarinelli/we-crm-sub002/internal/auth/repository"
	"github.com/joaofarinelli/we-crm-sub002/internal/company"
	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// AuthService handles authentication logic
type AuthService struct {
	accounts   *repository.AccountRepository
	sessions   *repository.SessionRepository
	resolver   *company.Resolver
	evaluator  *permissions.Evaluator
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	accounts *repository.AccountRepository,
	sessions *repository.SessionRepository,
	resolver *company.Resolver,
	evaluator *permissions.Evaluator,
	jwtManager *jwt.Manager,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		resolver:   resolver,
		evaluator:  evaluator,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents the authenticated user as returned to clients.
// CompanyID and Role are empty for accounts with no company yet; the
// frontend reads that as onboarding state.
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	CompanyID   string   `json:"company_id,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

// Login authenticates an account and returns a token pair. Membership
// and the effective permission grid are resolved here, once, and baked
// into the access token; per-request middleware only verifies the
// signature.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same error for unknown email and wrong password.
		return nil, errors.InvalidCredentials()
	}

	if !account.IsActive {
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	user := s.buildUserInfo(ctx, account)

	tokens, err := s.issueSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.TouchLastLogin(ctx, account.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", account.ID).Msg("failed to record last login")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         user,
	}, nil
}

// Refresh rotates the session and returns a fresh token pair.
// Membership is re-resolved on every refresh, so a role change or a
// company removal takes effect within one access-token lifetime.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	if _, err := s.jwtManager.ValidateRefreshToken(refreshToken); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetActiveByTokenHash(ctx, repository.HashToken(refreshToken))
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	account, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}
	if !account.IsActive {
		return nil, errors.Unauthorized("account disabled")
	}

	user := s.buildUserInfo(ctx, account)

	sessionID, tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	next := &repository.Session{
		ID:        sessionID,
		UserID:    account.ID,
		TokenHash: repository.HashToken(tokens.RefreshToken),
		UserAgent: session.UserAgent,
		IPAddress: session.IPAddress,
		ExpiresAt: time.Now().Add(s.jwtManager.GetRefreshExpiry()),
	}
	if err := s.sessions.Rotate(ctx, session.ID, next); err != nil {
		s.logger.Error().Err(err).Msg("failed to rotate session")
		return nil, errors.Internal("failed to refresh session")
	}

	return tokens, nil
}

// Logout revokes the session behind a refresh token. Always succeeds
// from the client's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.GetActiveByTokenHash(ctx, repository.HashToken(refreshToken))
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// GetCurrentUser returns the user info for an authenticated account,
// with membership and permissions freshly resolved.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildUserInfo(ctx, account), nil
}

// RevokeAllSessions logs the user out everywhere
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

// buildUserInfo resolves membership and flattens the effective grid.
// Resolution failures collapse into the onboarding shape, never an
// error.
func (s *AuthService) buildUserInfo(ctx context.Context, account *repository.Account) *UserInfo {
	user := &UserInfo{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		Permissions: []string{},
	}

	membership, err := s.resolver.Resolve(ctx, account.ID)
	if err != nil || membership == nil {
		return user
	}

	user.CompanyID = membership.CompanyID
	user.Role = membership.RoleName
	user.Permissions = s.evaluator.FlattenForRole(ctx, membership.CompanyID, membership.RoleName)
	return user
}

func (s *AuthService) issueSession(ctx context.Context, user *UserInfo, userAgent, ipAddress string) (*jwt.TokenPair, error) {
	sessionID, tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	session := &repository.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: repository.HashToken(tokens.RefreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(s.jwtManager.GetRefreshExpiry()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	return tokens, nil
}

func (s *AuthService) generateTokens(user *UserInfo) (string, *jwt.TokenPair, error) {
	sessionID := newSessionID()
	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		CompanyID:   user.CompanyID,
	}, sessionID)
	if err != nil {
		return "", nil, errors.Internal("failed to generate tokens")
	}
	return sessionID, tokens, nil
}

// newSessionID generates a unique session ID
func newSessionID() string {
	return uuid.New().String()
}
