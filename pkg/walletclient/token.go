package walletclient

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when an authenticated call is attempted before a
// successful Login.
var ErrNoToken = errors.New("walletclient: not logged in")

// ErrTokenExpired is returned when the stored token's exp claim has passed.
var ErrTokenExpired = errors.New("walletclient: token expired")

// TokenInfo is the mutex-protected optional slot holding the wallet's
// current login JWT. Login replaces its contents atomically; every other
// access takes the same mutex, so a caller never observes a torn update.
type TokenInfo struct {
	mu       sync.Mutex
	jwtValue string
	clientID string
	expires  time.Time
	present  bool
}

func newTokenInfo() *TokenInfo {
	return &TokenInfo{}
}

// loginClaims mirrors the subset of the login JWT's registered claims this
// client reads: sub becomes the client id, exp bounds token validity.
type loginClaims struct {
	jwt.RegisteredClaims
}

func parseTokenInfo(rawJWT string) (*loginClaims, error) {
	var claims loginClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(rawJWT, &claims); err != nil {
		return nil, fmt.Errorf("walletclient: parsing login token: %w", err)
	}
	return &claims, nil
}

func (t *TokenInfo) set(rawJWT string, claims *loginClaims) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jwtValue = rawJWT
	t.clientID = claims.Subject
	if claims.ExpiresAt != nil {
		t.expires = claims.ExpiresAt.Time
	} else {
		t.expires = time.Time{}
	}
	t.present = true
}

// IsTokenValid reports whether a token is present and its exp has not
// passed yet.
func (t *TokenInfo) IsTokenValid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.present {
		return false
	}
	if t.expires.IsZero() {
		return true
	}
	return time.Now().Before(t.expires)
}

// GetClientID returns the sub claim of the last successful login.
func (t *TokenInfo) GetClientID() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.present {
		return "", ErrNoToken
	}
	return t.clientID, nil
}

// GetAuthHeader returns the "Bearer <jwt>" value for the Authorization
// header of a downstream wallet-service call.
func (t *TokenInfo) GetAuthHeader() (string, error) {
	jwtValue, err := t.jwt()
	if err != nil {
		return "", err
	}
	return "Bearer " + jwtValue, nil
}

func (t *TokenInfo) jwt() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.present {
		return "", ErrNoToken
	}
	if !t.expires.IsZero() && !time.Now().Before(t.expires) {
		return "", ErrTokenExpired
	}
	return t.jwtValue, nil
}
