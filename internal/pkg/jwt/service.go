package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UserID    any    `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type,omitempty"`

	jwtlib.RegisteredClaims
}

// Inspector reads claims from session tokens the backend issued. The client does
// not hold the signing secret, so signatures are not verified: the result is only
// used to drop sessions that are already known to be dead.
type Inspector struct {
	parser *jwtlib.Parser
	now    func() time.Time
}

func NewInspector() *Inspector {
	return &Inspector{parser: jwtlib.NewParser(), now: time.Now}
}

// LooksLikeJWT reports whether token has the three dot-separated segments of a
// compact JWS. Opaque session tokens return false.
func LooksLikeJWT(token string) bool {
	return strings.Count(strings.TrimSpace(token), ".") == 2
}

// Claims parses token without verifying its signature.
func (i *Inspector) Claims(token string) (Claims, error) {
	var c Claims
	if _, _, err := i.parser.ParseUnverified(strings.TrimSpace(token), &c); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

// Check returns nil for opaque tokens and for JWTs that have not expired.
func (i *Inspector) Check(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}
	if !LooksLikeJWT(token) {
		return nil
	}

	c, err := i.Claims(token)
	if err != nil {
		return err
	}
	if c.ExpiresAt != nil && !i.now().Before(c.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

// Expiry returns the exp claim of a JWT session token, if any.
func (i *Inspector) Expiry(token string) (time.Time, bool) {
	if !LooksLikeJWT(token) {
		return time.Time{}, false
	}
	c, err := i.Claims(token)
	if err != nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}
