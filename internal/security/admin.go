package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminDisabled      = errors.New("admin access is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const adminSubject = "admin"

// AdminAuth checks the admin password and issues short-lived bearer tokens
type AdminAuth struct {
	passHash []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAdminAuth creates an authenticator from a bcrypt hash and an HMAC secret.
// Either being empty leaves admin access disabled.
func NewAdminAuth(passHash, secret string, ttl time.Duration) *AdminAuth {
	return &AdminAuth{
		passHash: []byte(passHash),
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Enabled reports whether credentials are configured
func (a *AdminAuth) Enabled() bool {
	return len(a.passHash) > 0 && len(a.secret) > 0
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASS_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IssueToken checks the password and returns a signed token
func (a *AdminAuth) IssueToken(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	expires := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// VerifyToken validates a token issued by IssueToken
func (a *AdminAuth) VerifyToken(token string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != adminSubject {
		return ErrInvalidToken
	}
	return nil
}
