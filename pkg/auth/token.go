package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/milan604/travelplanner-client/pkg/apperr"
)

// DefaultIssuer is the iss claim of issued tokens.
const DefaultIssuer = "travelplanner"

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type TokenOption func(*Tokens)

func WithIssuer(iss string) TokenOption {
	return func(t *Tokens) { t.issuer = iss }
}

// WithClock overrides time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *Tokens) { t.now = now }
}

// NewTokens returns a token service. secret must not be empty and ttl must be positive.
func NewTokens(secret string, ttl time.Duration, opts ...TokenOption) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: empty jwt secret")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	t := &Tokens{secret: []byte(secret), ttl: ttl, issuer: DefaultIssuer, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// TTL is the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for the user.
func (t *Tokens) Issue(userID, username string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses tok. Expired tokens fail with token_expired, anything else
// unusable with invalid_token.
func (t *Tokens) Verify(tok string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	_, err := parser.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	switch {
	case err == nil:
		if claims.Subject == "" {
			return Claims{}, apperr.New(apperr.ErrorCodeInvalidToken)
		}
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, apperr.New(apperr.ErrorCodeTokenExpired).Wrap(err)
	default:
		return Claims{}, apperr.New(apperr.ErrorCodeInvalidToken).Wrap(err)
	}
}
