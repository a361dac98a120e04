// Package session issues and resolves cookie-backed login sessions.
//
// A session is an HS256 JWT stored in an HttpOnly cookie. Logging out records
// the token's jti in Redis until the token would have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"jobboard/internal/cache"
	"jobboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	Issuer   = "jobboard"
	Audience = "jobboard-web"
)

var (
	ErrNoSession      = errors.New("no session cookie")
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrRevoked        = errors.New("session revoked")
)

// Options configures a Manager.
type Options struct {
	Secret      string
	CookieName  string
	SessionTTL  time.Duration
	RememberTTL time.Duration
	Secure      bool
	Redis       *redis.Client
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	secret      []byte
	cookieName  string
	sessionTTL  time.Duration
	rememberTTL time.Duration
	secure      bool
	redis       *redis.Client
	now         func() time.Time
}

// Claims is the resolved content of a session token.
type Claims struct {
	UserID    uint
	ID        string
	Remember  bool
	ExpiresAt time.Time
}

type tokenClaims struct {
	Remember bool `json:"rem,omitempty"`
	jwt.RegisteredClaims
}

func NewManager(opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "jobboard_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RememberTTL < opts.SessionTTL {
		opts.RememberTTL = opts.SessionTTL
	}
	return &Manager{
		secret:      []byte(opts.Secret),
		cookieName:  opts.CookieName,
		sessionTTL:  opts.SessionTTL,
		rememberTTL: opts.RememberTTL,
		secure:      opts.Secure,
		redis:       opts.Redis,
		now:         time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue signs a token for userID. remember selects the long lifetime.
func (m *Manager) Issue(userID uint, remember bool) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret not configured")
	}

	now := m.now()
	ttl := m.sessionTTL
	if remember {
		ttl = m.rememberTTL
	}
	expires := now.Add(ttl)

	claims := tokenClaims{
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Parse validates a token's signature, issuer, audience and lifetime.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 || claims.ID == "" {
		return nil, ErrInvalidSession
	}

	return &Claims{
		UserID:    uint(userID),
		ID:        claims.ID,
		Remember:  claims.Remember,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Login issues a session for userID and writes the cookie. Without remember
// the cookie is browser-session scoped; with it the cookie persists until expiry.
func (m *Manager) Login(c *fiber.Ctx, userID uint, remember bool) error {
	token, expires, err := m.Issue(userID, remember)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:        m.cookieName,
		Value:       token,
		Path:        "/",
		Expires:     expires,
		Secure:      m.secure,
		HTTPOnly:    true,
		SameSite:    fiber.CookieSameSiteLaxMode,
		SessionOnly: !remember,
	})
	return nil
}

// Resolve returns the claims of the request's session cookie.
func (m *Manager) Resolve(c *fiber.Ctx) (*Claims, error) {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return nil, ErrNoSession
	}

	claims, err := m.Parse(raw)
	if err != nil {
		return nil, err
	}

	revoked, err := m.IsRevoked(c.UserContext(), claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session revocation check failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Logout revokes the current token, if any, and expires the cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	var revokeErr error
	if raw := c.Cookies(m.cookieName); raw != "" {
		if claims, err := m.Parse(raw); err == nil {
			revokeErr = m.Revoke(c.UserContext(), claims)
		}
	}

	m.ClearCookie(c)
	return revokeErr
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  m.now().Add(-24 * time.Hour),
		Secure:   m.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Revoke records the token id until the token's own expiry. It is a no-op without Redis.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.redis == nil || claims == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, cache.RevokedSessionKey(claims.ID), "1", ttl).Err()
}

// IsRevoked reports whether jti has been logged out. Redis errors report false
// alongside the error so callers can fail open.
func (m *Manager) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.redis == nil {
		return false, nil
	}
	n, err := m.redis.Exists(ctx, cache.RevokedSessionKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
