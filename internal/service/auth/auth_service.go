package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/internal/service"
	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

// Session tokens are short-lived; the mobile client re-authenticates daily
const tokenTTL = 24 * time.Hour

// Service implements the AuthService interface with email/password login
// and HS256 session tokens
type Service struct {
	users  repository.UserRepository
	secret []byte
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, jwtSecret string, logger *logger.Logger) service.AuthService {
	return &Service{
		users:  users,
		secret: []byte(jwtSecret),
		logger: logger,
	}
}

type sessionClaims struct {
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies credentials and returns a signed session token
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, errors.NewInternalError("failed to look up user", err)
	}
	if user == nil || !user.Active {
		return "", nil, errors.NewAuthenticationError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("email", email).Warn("Failed login attempt")
		return "", nil, errors.NewAuthenticationError("invalid email or password")
	}

	now := time.Now().UTC()
	claims := sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, errors.NewInternalError("failed to sign session token", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    string(user.Role),
	}).Info("User logged in")

	return token, user, nil
}

// ValidateToken validates a session token and returns its claims
func (s *Service) ValidateToken(_ context.Context, token string) (*domain.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.NewAuthenticationError("invalid or expired token")
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return nil, errors.NewAuthenticationError("invalid token claims")
	}

	return &domain.AuthClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves the account behind validated claims
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user not found")
	}
	return user, nil
}
