// Package auth signs and verifies the JWTs handed out to clients.
//
// Access and refresh tokens are signed with independent secrets and carry a
// type claim; a token is only accepted for the purpose it was minted for.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose selects the secret and lifetime used for a token.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Claims is the signed payload: the registered claims plus email and type.
// Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string  `json:"email"`
	Type  Purpose `json:"type"`
}

// Payload is the caller-facing view of verified or decoded claims.
type Payload struct {
	Subject   string
	Email     string
	Type      Purpose
	ExpiresAt time.Time
}

// KeyConfig is the secret and lifetime for one purpose.
type KeyConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Codec issues and verifies tokens for both purposes.
type Codec struct {
	keys  map[Purpose]KeyConfig
	clock timex.Clock
}

// NewCodec validates the key material and builds a Codec. The secrets must be
// non-empty and different from each other.
func NewCodec(access, refresh KeyConfig, clock timex.Clock) (*Codec, error) {
	if len(access.Secret) == 0 || len(refresh.Secret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if string(access.Secret) == string(refresh.Secret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &Codec{
		keys:  map[Purpose]KeyConfig{PurposeAccess: access, PurposeRefresh: refresh},
		clock: clock,
	}, nil
}

// TTL returns the configured lifetime for purpose.
func (c *Codec) TTL(purpose Purpose) time.Duration {
	return c.keys[purpose].TTL
}

// Issue signs a token for subjectID/email with the key of purpose.
func (c *Codec) Issue(subjectID, email string, purpose Purpose) (string, error) {
	key, ok := c.keys[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := c.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.TTL)),
		},
		Email: email,
		Type:  purpose,
	})

	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and type against purpose.
func (c *Codec) Verify(tokenString string, purpose Purpose) (*Payload, error) {
	key, ok := c.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("unknown token purpose %q", purpose)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return key.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != purpose {
		return nil, ErrWrongPurpose
	}

	return claims.payload(), nil
}

// Decode reads the claims without checking the signature or expiry.
// Never use the result to authorize anything.
func (c *Codec) Decode(tokenString string) (*Payload, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.payload(), nil
}

func (c *Claims) payload() *Payload {
	p := &Payload{Subject: c.Subject, Email: c.Email, Type: c.Type}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
