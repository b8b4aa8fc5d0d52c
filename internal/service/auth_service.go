package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-admin-api/internal/dto"
)

// TokenIssuer is the iss claim of every access token.
const TokenIssuer = "campus-admin-api"

// AdminRole is the role claim carried by administrator tokens.
const AdminRole = "admin"

// ErrInvalidCredentials indicates the username or password did not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccessClaims are the claims embedded in administrator access tokens.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig describes the single administrator identity and token settings.
type AuthConfig struct {
	Username     string
	PasswordHash string
	Secret       string
	TTL          time.Duration
}

// AuthService authenticates the administrator and issues bearer tokens.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error)
}

type authService struct {
	cfg       AuthConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(cfg AuthConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	return &authService{
		cfg:       cfg,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *authService) Login(_ context.Context, payload dto.LoginRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	username := strings.TrimSpace(payload.Username)
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) != 1 {
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(payload.Password)) != nil {
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	expires := now.Add(s.cfg.TTL)
	claims := AccessClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   s.cfg.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return dto.TokenResponse{}, err
	}

	s.logger.Info().Str("username", username).Time("expires_at", expires).Msg("access token issued")

	return dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expires,
	}, nil
}
