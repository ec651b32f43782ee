// Package tokens issues and validates the short-lived bearer tokens that
// authorize the embedded feedback document.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of a feedback token.
const DefaultTTL = 5 * time.Minute

// Audience scopes tokens to the feedback surface.
const Audience = "feedback"

var (
	// ErrInvalidToken is returned for tokens that fail signature or claim checks.
	ErrInvalidToken = errors.New("invalid feedback token")
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("missing feedback token")
)

// Claims are the claims carried by a feedback token.
type Claims struct {
	jwt.RegisteredClaims
}

// Issued is a freshly minted token.
type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Issuer mints and validates HS256 feedback tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl uses DefaultTTL.
func NewIssuer(secret string, ttl time.Duration, issuer string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// TTL returns the token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a new token with a unique ID.
func (i *Issuer) Issue(ctx context.Context) (Issued, error) {
	now := i.now()
	id := uuid.New().String()
	exp := now.Add(i.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign feedback token: %w", err)
	}
	return Issued{Token: signed, ID: id, ExpiresAt: exp}, nil
}

// FetchToken issues a token in-process. It lets the issuer act as the token
// source for server-side rendering.
func (i *Issuer) FetchToken(ctx context.Context) (string, error) {
	issued, err := i.Issue(ctx)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// Validate parses tokenString and checks signature, algorithm, issuer,
// audience and expiry.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
