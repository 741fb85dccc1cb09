// Package auth verifies the HS256 access tokens minted by the identity
// service. The token only names the caller; roles and access rights are
// always read from the user row.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
)

var signingMethod = jwt.SigningMethodHS256

var (
	ErrNoSecret   = errors.New("jwt secret is not configured")
	ErrBadSubject = errors.New("token subject is not a user id")
)

// Verifier checks signature, issuer, audience and expiry.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{secret: []byte(cfg.Secret), parser: jwt.NewParser(opts...)}
}

// Verify returns the user id carried in the token subject.
func (v *Verifier) Verify(token string) (uuid.UUID, error) {
	if len(v.secret) == 0 {
		return uuid.Nil, ErrNoSecret
	}
	var claims jwt.RegisteredClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.key); err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, ErrBadSubject
	}
	return userID, nil
}

func (v *Verifier) key(*jwt.Token) (any, error) {
	return v.secret, nil
}

// Signer mints tokens for local tooling and tests.
type Signer struct {
	cfg config.JWTConfig
	ttl time.Duration
	now func() time.Time
}

func NewSigner(cfg config.JWTConfig, ttl time.Duration) (*Signer, error) {
	switch {
	case cfg.Secret == "":
		return nil, ErrNoSecret
	case cfg.Issuer == "":
		return nil, errors.New("jwt issuer is required")
	case ttl <= 0:
		return nil, errors.New("jwt ttl must be positive")
	}
	return &Signer{cfg: cfg, ttl: ttl, now: time.Now}, nil
}

func (s *Signer) Sign(userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
