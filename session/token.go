package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session cookies with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu sync.Mutex
	// Token IDs revoked before expiry, mapped to their expiry time.
	revoked map[string]time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now, revoked: make(map[string]time.Time)}
}

// Issue returns a token for sessionID. username is empty for guests.
func (i *Issuer) Issue(sessionID, username string) (string, error) {
	now := i.now()
	c := claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its session ID and username.
// Revoked tokens are rejected.
func (i *Issuer) Parse(token string) (sessionID, username string, err error) {
	c, err := i.verify(token)
	if err != nil {
		return "", "", err
	}
	i.mu.Lock()
	_, revoked := i.revoked[c.ID]
	i.mu.Unlock()
	if revoked {
		return "", "", ErrInvalidToken
	}
	return c.SessionID, c.Subject, nil
}

// Revoke makes token unusable before it expires. Invalid tokens are ignored.
func (i *Issuer) Revoke(token string) {
	c, err := i.verify(token)
	if err != nil || c.ID == "" {
		return
	}
	now := i.now()
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, exp := range i.revoked {
		if !exp.After(now) {
			delete(i.revoked, id)
		}
	}
	i.revoked[c.ID] = c.ExpiresAt.Time
}

func (i *Issuer) verify(token string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}
