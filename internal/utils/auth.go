package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// TokenPair is the session handed to clients after a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Identity is the authenticated principal carried by an access token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// OperatorEmail maps a PIN to the operator account login.
func OperatorEmail(pin, operatorDomain string) string {
	return pin + "@" + operatorDomain
}

// ManagerEmail appends the manager domain to logins typed without "@".
func ManagerEmail(login, managerDomain string) string {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") || managerDomain == "" {
		return login
	}
	return login + "@" + managerDomain
}

// DeriveRole uses the account's role attribute when it is a known role;
// otherwise operator-domain emails are operators and everyone else a manager.
func DeriveRole(email, roleAttr, operatorDomain string) string {
	switch roleAttr {
	case models.RoleManager, models.RoleOperator:
		return roleAttr
	}
	if operatorDomain != "" && strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(operatorDomain)) {
		return models.RoleOperator
	}
	return models.RoleManager
}

// GenerateTokens generates Access and Refresh tokens
func GenerateTokens(user *models.UserAuth, cfg *config.Config) (*TokenPair, error) {
	now := time.Now()
	role := DeriveRole(user.Email, user.Role, cfg.Auth.OperatorDomain)

	accessTTL := cfg.Auth.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	refreshTTL := cfg.Auth.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  role,
		"typ":   tokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshClaims := jwt.MapClaims{
		"id":  user.ID,
		"typ": tokenTypeRefresh,
		"iat": now.Unix(),
		"exp": now.Add(refreshTTL).Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTTL.Seconds()),
		TokenType:    "bearer",
	}, nil
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ParseAccessToken validates an access token and returns its identity.
func ParseAccessToken(tokenString, secret string) (*Identity, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return nil, fmt.Errorf("not an access token")
	}
	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if id == "" || role == "" {
		return nil, errors.New("invalid token claims")
	}
	return &Identity{ID: id, Email: email, Role: role}, nil
}

// ParseRefreshToken validates a refresh token and returns the account id.
func ParseRefreshToken(tokenString, secret string) (string, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return "", err
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeRefresh {
		return "", fmt.Errorf("not a refresh token")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("invalid token claims")
	}
	return id, nil
}
