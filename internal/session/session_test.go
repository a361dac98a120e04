package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobboard/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-1234"

func newTestManager(t *testing.T, withRedis bool) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	opts := Options{
		Secret:      testSecret,
		CookieName:  "sess",
		SessionTTL:  time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}

	var mr *miniredis.Miniredis
	if withRedis {
		var err error
		mr, err = miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		opts.Redis = rdb
	}
	return NewManager(opts), mr
}

func TestManager_IssueAndParse(t *testing.T) {
	m, _ := newTestManager(t, false)

	token, expires, err := m.Issue(42, false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.False(t, claims.Remember)

	remembered, expires, err := m.Issue(42, true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expires, 5*time.Second)
	claims, err = m.Parse(remembered)
	require.NoError(t, err)
	assert.True(t, claims.Remember)
}

func TestManager_ParseRejects(t *testing.T) {
	m, _ := newTestManager(t, false)
	valid, _, err := m.Issue(1, false)
	require.NoError(t, err)

	other := NewManager(Options{Secret: "a-completely-different-secret-value!!"})
	foreign, _, err := other.Issue(1, false)
	require.NoError(t, err)

	expiredMgr, _ := newTestManager(t, false)
	expiredMgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredMgr.Issue(1, false)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "someone-else",
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		ID:        "x",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		ID:        "x",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     valid + "A",
		"foreign key":  foreign,
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"alg none":     noneAlg,
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func sessionCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newSessionApp(m *Manager) *fiber.App {
	app := fiber.New()
	app.Get("/login", func(c *fiber.Ctx) error {
		return m.Login(c, 7, c.Query("remember") == "1")
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		claims, err := m.Resolve(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(claims.ID)
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		return m.Logout(c)
	})
	return app
}

func TestManager_LoginCookieAttributes(t *testing.T) {
	m, _ := newTestManager(t, false)
	app := newSessionApp(m)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(resp, "sess")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.Expires.IsZero(), "non-remembered session must be a browser-session cookie")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/login?remember=1", nil))
	require.NoError(t, err)
	cookie = sessionCookie(resp, "sess")
	require.NotNil(t, cookie)
	assert.True(t, cookie.Expires.After(time.Now().Add(29*24*time.Hour)))
}

func TestManager_LogoutRevokes(t *testing.T) {
	m, mr := newTestManager(t, true)
	app := newSessionApp(m)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(resp, "sess")
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	claims, err := m.Parse(cookie.Value)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	cleared := sessionCookie(resp, "sess")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))

	key := cache.RevokedSessionKey(claims.ID)
	assert.True(t, mr.Exists(key))
	assert.LessOrEqual(t, mr.TTL(key), time.Hour)

	// Replaying the old cookie is rejected.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManager_ResolveWithoutCookie(t *testing.T) {
	m, _ := newTestManager(t, false)
	app := newSessionApp(m)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManager_RedisDownFailsOpen(t *testing.T) {
	m, mr := newTestManager(t, true)
	token, _, err := m.Issue(3, false)
	require.NoError(t, err)
	mr.Close()

	app := newSessionApp(m)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: token})
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/job/new", "/job/new"},
		{"/job/3/update?x=1", "/job/3/update?x=1"},
		{"//evil.example.com", "/"},
		{"https://evil.example.com/", "/"},
		{"job/new", "/"},
		{"/\\evil.example.com", "/"},
		{"/ok\r\nSet-Cookie: x", "/"},
		{"javascript:alert(1)", "/"},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.in, "/", "_"), func(t *testing.T) {
			assert.Equal(t, tt.want, SafeNext(tt.in))
		})
	}
}
