package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/salus-hms/salus-api/internal/config"
)

var (
	ErrInvalidPasskey = errors.New("invalid admin passkey")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("token is invalid")
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

const adminScope = "admin"

// SessionManager gates the admin dashboard: it checks the configured passkey
// and issues short-lived session tokens.
type SessionManager struct {
	cfg config.AdminConfig
}

func NewSessionManager(cfg config.AdminConfig) *SessionManager {
	return &SessionManager{cfg: cfg}
}

// Login verifies the passkey against the configured bcrypt hash and returns a
// signed session token.
func (m *SessionManager) Login(passkey string) (string, time.Time, error) {
	if m.cfg.PasskeyHash == "" {
		return "", time.Time{}, ErrInvalidPasskey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.cfg.PasskeyHash), []byte(passkey)); err != nil {
		return "", time.Time{}, ErrInvalidPasskey
	}

	now := time.Now()
	expiresAt := now.Add(m.cfg.SessionTokenTTL)

	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: adminScope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a session token.
func (m *SessionManager) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.Scope != adminScope {
		return ErrTokenInvalid
	}

	return nil
}
