package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/google"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token claims")
)

// Claims extends JWT standard claims with the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// IdentityVerifier checks third-party ID tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*google.Identity, error)
}

// GoogleLoginResult is returned after a successful Google sign-in.
type GoogleLoginResult struct {
	AccessToken string `json:"access_token"`
	ID          int    `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
}

// AuthService handles password and Google authentication and token issuance.
type AuthService struct {
	cfg      *config.Config
	users    repository.UserRepository
	identity IdentityVerifier
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	identity IdentityVerifier,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		identity: identity,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken issues an HS256 access token for userID.
func (s *AuthService) GenerateToken(userID int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Register creates a password account. The returned user never carries the
// hash outside this package's JSON shape.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
		FullName: req.FullName,
		Age:      req.Age,
		Address:  req.Address,
		Phone:    req.Phone,
		About:    req.About,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, response.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login checks an email/password pair and returns an access token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	if strings.TrimSpace(req.Email) == "" {
		return "", response.BadRequest("Email is required")
	}
	if req.Password == "" {
		return "", response.BadRequest("Password is required")
	}

	invalid := response.Unauthorized(response.ErrInvalidCredentials, "Invalid email/password")

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", invalid
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := s.CheckPassword(user.Password, req.Password); err != nil {
		return "", invalid
	}

	return s.GenerateToken(user.ID)
}

// GoogleLogin signs in with a Google ID token, creating the account on first
// use with a random password.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*GoogleLoginResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, response.BadRequest("Google token is required")
	}

	identity, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("Google token rejected")
		return nil, response.Unauthorized(response.ErrInvalidGoogleToken, "")
	}

	email := strings.ToLower(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createGoogleUser(ctx, email, identity.Name)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &GoogleLoginResult{
		AccessToken: token,
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
	}, nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, email, name string) (*model.User, error) {
	hash, err := s.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = email
	}

	user := &model.User{Email: email, Password: hash, FullName: name}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Msg("User created from Google sign-in")
	return user, nil
}
