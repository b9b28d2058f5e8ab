package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// TokenHeader carries the shared API secret on every authenticated request.
const TokenHeader = "CF-Token"

var (
	ErrMissingSecret = errors.New("token validator: secret required")
	ErrMissingToken  = errors.New("token validator: token required")
	ErrInvalidToken  = errors.New("token validator: invalid token")
)

// TokenValidatorConfig describes the shared secret requests must present.
type TokenValidatorConfig struct {
	Secret     string
	HeaderName string
}

// TokenValidator compares the request token header against a shared secret.
type TokenValidator struct {
	secret     []byte
	headerName string
}

// NewTokenValidator constructs a validator with the provided configuration.
func NewTokenValidator(cfg TokenValidatorConfig) (*TokenValidator, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = TokenHeader
	}
	return &TokenValidator{
		secret:     []byte(secret),
		headerName: headerName,
	}, nil
}

// HeaderName returns the header inspected by ValidateRequest.
func (v *TokenValidator) HeaderName() string {
	return v.headerName
}

// ValidateToken reports whether token matches the secret in constant time.
func (v *TokenValidator) ValidateToken(token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(token), v.secret) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// ValidateRequest extracts the configured header from the request and validates it.
func (v *TokenValidator) ValidateRequest(r *http.Request) error {
	if r == nil {
		return ErrMissingToken
	}
	return v.ValidateToken(r.Header.Get(v.headerName))
}
