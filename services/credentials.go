package services

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/blogapi/utils"
)

// ErrTokenRevoked marks a token that was logged out before it expired.
var ErrTokenRevoked = errors.New("token revoked")

// DefaultTokenTTL is the bearer token lifetime when none is configured.
const DefaultTokenTTL = time.Hour

// Credentials issues, verifies and revokes bearer tokens.
type Credentials struct {
	secret    []byte
	ttl       time.Duration
	blacklist *utils.TokenBlacklist
}

// NewCredentials creates a credential service. A nil blacklist disables revocation storage.
func NewCredentials(secret string, ttl time.Duration, blacklist *utils.TokenBlacklist) (*Credentials, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if blacklist == nil {
		blacklist = utils.NewTokenBlacklist(nil)
	}
	return &Credentials{secret: []byte(secret), ttl: ttl, blacklist: blacklist}, nil
}

// Issue returns a signed token for userID.
func (c *Credentials) Issue(userID string) (string, error) {
	token, _, err := utils.GenerateToken(userID, c.secret, c.ttl)
	if err != nil {
		return "", internal("could not issue token", err)
	}
	return token, nil
}

// Verify returns the user id carried by a valid, unrevoked token.
func (c *Credentials) Verify(ctx context.Context, token string) (string, error) {
	claims, err := utils.ParseToken(token, c.secret)
	if err != nil {
		return "", &Error{Kind: KindUnauthenticated, Message: "invalid token", Err: err}
	}
	if c.blacklist.Contains(ctx, token) {
		return "", &Error{Kind: KindUnauthenticated, Message: "token revoked", Err: ErrTokenRevoked}
	}
	return claims.UserID, nil
}

// Revoke blacklists a valid token until it expires.
func (c *Credentials) Revoke(ctx context.Context, token string) error {
	claims, err := utils.ParseToken(token, c.secret)
	if err != nil {
		return &Error{Kind: KindUnauthenticated, Message: "invalid token", Err: err}
	}
	if err := c.blacklist.Add(ctx, token, claims.ExpiresAt.Time); err != nil {
		return internal("could not revoke token", err)
	}
	return nil
}
