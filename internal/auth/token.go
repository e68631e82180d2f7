package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "miniblog"

// TokenService mints and validates signed session tokens.
//
// Tokens are HS256 JWTs. The subject carries the username; the "jti" claim
// carries a unique session id (an xid) so the session manager can track and
// revoke individual sessions. The signature means the token is tamper-proof
// without any storage lookup — the manager only has to consult its registry
// for the revocation check.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// SessionClaims is the token payload: a session id plus the standard
// registered claims (subject = username, expiry, issuer).
type SessionClaims struct {
	jwt.RegisteredClaims
}

// NewTokenService creates a TokenService with the given HMAC secret and
// token lifetime. The secret should be at least 32 random bytes in
// production (e.g. SESSION_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Mint creates a signed token for the given username and returns the token
// string together with its session id.
func (s *TokenService) Mint(username string) (token, sessionID string, err error) {
	now := time.Now()
	sessionID = xid.New().String()

	c := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, sessionID, nil
}

// Validate parses and verifies a token string, returning the username and
// session id it encodes.
//
// The jwt library checks the signature and expiry; restricting the method
// to HS256 and pinning the issuer closes off algorithm-confusion tokens
// and tokens minted by some other application sharing the secret.
func (s *TokenService) Validate(tokenStr string) (username, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: token expired")
		}
		return "", "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" || c.ID == "" {
		return "", "", fmt.Errorf("auth: token missing subject or session id")
	}

	return c.Subject, c.ID, nil
}
