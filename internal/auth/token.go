package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"marketplace-service/internal/domain"
)

// Token type markers carried in the "typ" claim. Access tokens authenticate
// requests; refresh tokens may only be exchanged for a new access token.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims is the payload carried by issued tokens: the subject is the user's
// email, UserID and Role identify the caller for access control.
type Claims struct {
	UserID    int64       `json:"id"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed bearer tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and
// token lifetimes.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs a short-lived access token for the user.
func (t *TokenService) IssueAccessToken(user *domain.User) (string, error) {
	return t.issue(user, TokenTypeAccess, t.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (t *TokenService) IssueRefreshToken(user *domain.User) (string, error) {
	return t.issue(user, TokenTypeRefresh, t.refreshTTL)
}

func (t *TokenService) issue(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the token signature and expiry and returns its claims.
// The caller is responsible for checking the token type.
func (t *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
