package session

import (
	"errors"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"shelfsync/internal/util"
)

const (
	jwtIssuer   = "shelfsync"
	jwtAudience = "shelfsync-api"
	jwtLeeway   = 30 * time.Second
)

// JWTTokenStore issues and validates stateless HS256 session tokens. Sign-out
// works through a revocation list keyed on the token id, since the token
// itself stays valid until expiry.
type JWTTokenStore struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

// NewJWTTokenStore builds a JWT session store from a shared secret.
func NewJWTTokenStore(secret string, ttl time.Duration) (*JWTTokenStore, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTTokenStore{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}, nil
}

// NewSession issues a signed token for the user.
func (s *JWTTokenStore) NewSession(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        util.NewID(),
		Subject:   userID,
		Issuer:    jwtIssuer,
		Audience:  jwt.ClaimStrings{jwtAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GetUserIDByToken validates a token and returns its subject.
func (s *JWTTokenStore) GetUserIDByToken(token string) (string, bool, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", false, nil
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false, nil
	}
	s.mu.Lock()
	_, isRevoked := s.revoked[claims.ID]
	s.pruneLocked(time.Now())
	s.mu.Unlock()
	if isRevoked {
		return "", false, nil
	}
	return claims.Subject, true, nil
}

// DeleteSession revokes a token until its natural expiry.
func (s *JWTTokenStore) DeleteSession(token string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return nil
	}
	expiry := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	s.mu.Lock()
	s.revoked[claims.ID] = expiry
	s.mu.Unlock()
	return nil
}

// pruneLocked drops revocation entries whose tokens have expired anyway.
func (s *JWTTokenStore) pruneLocked(now time.Time) {
	for jti, expiry := range s.revoked {
		if now.After(expiry.Add(jwtLeeway)) {
			delete(s.revoked, jti)
		}
	}
}
