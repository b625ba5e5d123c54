package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	minPasswordLen   = 8
)

// ErrInvalidCredentials is returned on a failed login or a bad token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterRequest holds the data needed to create an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest holds login credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenPair carries a short-lived access token and a long-lived refresh
// token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type tokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// AuthService issues and validates bearer credentials. The todo core only
// ever sees the user id this service extracts.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	GetUser(ctx context.Context, userID uint) (*UserResponse, error)
	ValidateAccessToken(token string) (uint, error)
}

type authService struct {
	users      repository.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates an auth service signing HS256 tokens with the
// given secret.
func NewAuthService(users repository.UserRepository, secret string, accessTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		users:      users,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "username is required"}
	}
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Message: "email is required"}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &domain.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, &domain.ValidationError{Field: "username", Message: "username is already taken"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.authResponse(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "username and password are required"}
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResponse(user)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.validateToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	// The account may have been deleted since the refresh token was issued.
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return s.signToken(userID, tokenTypeAccess, s.accessTTL)
}

func (s *authService) GetUser(ctx context.Context, userID uint) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

// ValidateAccessToken returns the owner id carried by an access token.
func (s *authService) ValidateAccessToken(token string) (uint, error) {
	return s.validateToken(token, tokenTypeAccess)
}

func (s *authService) authResponse(user *domain.User) (*AuthResponse, error) {
	access, err := s.signToken(user.ID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user.ID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:   UserResponse{ID: user.ID, Username: user.Username, Email: user.Email},
		Tokens: TokenPair{Access: access, Refresh: refresh},
	}, nil
}

func (s *authService) signToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *authService) validateToken(raw, wantType string) (uint, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredentials
	}
	if claims.TokenType != wantType || claims.UserID == 0 {
		return 0, ErrInvalidCredentials
	}
	return claims.UserID, nil
}
