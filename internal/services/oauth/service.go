// Package oauth issues and validates the gateway's bearer tokens. Access is
// anonymous: clients obtain a short-lived JWT with no credentials, then
// rotate it through the refresh grant.
package oauth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/logger"
)

const (
	GrantTypeAnonymous = "anonymous"
	GrantTypeRefresh   = "refresh_token"
)

// TokenLifetime bounds one access token.
const TokenLifetime = 15 * time.Minute

type CustomClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	GrantType string `json:"gty"`
}

type TokenValidationResult struct {
	Valid     bool
	SessionID string
	GrantType string
	ExpiresAt time.Time
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Debug(logger.OAUTH, "No Authorization header found")
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Warn(logger.OAUTH, "Malformed Authorization header")
		return ""
	}

	return parts[1]
}

// IssueToken signs an access token for a session.
func IssueToken(sessionID, grantType string) (string, error) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
		SessionID: sessionID,
		GrantType: grantType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.GetJWTSecret())
}

// ValidateToken parses and checks a bearer token.
func ValidateToken(tokenString string) TokenValidationResult {
	result := TokenValidationResult{Valid: false}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		logger.Error(logger.OAUTH, "Failed to parse token: %v", err)
		return result
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		logger.Error(logger.OAUTH, "Invalid token claims")
		return result
	}

	if claims.SessionID == "" {
		logger.Error(logger.OAUTH, "Missing session ID in token")
		return result
	}

	if claims.GrantType != GrantTypeAnonymous && claims.GrantType != GrantTypeRefresh {
		logger.Error(logger.OAUTH, "Invalid grant type in token: %s", claims.GrantType)
		return result
	}

	result.Valid = true
	result.SessionID = claims.SessionID
	result.GrantType = claims.GrantType
	result.ExpiresAt = claims.ExpiresAt.Time
	return result
}
