package server

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"jobboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookieName = "jobboard_flash"
	localFlashes    = "flashes"
	flashMaxAge     = 5 * time.Minute
)

// flash queues a message for the next rendered page. It survives a redirect
// through a short-lived cookie.
func (s *Server) flash(c *fiber.Ctx, category, message string) {
	pending, _ := c.Locals(localFlashes).([]views.Flash)
	if pending == nil {
		pending = readFlashCookie(c)
	}
	pending = append(pending, views.Flash{Category: category, Message: message})
	c.Locals(localFlashes, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Expires:  time.Now().Add(flashMaxAge),
		Secure:   s.config.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// takeFlashes returns the queued messages and clears the cookie.
func (s *Server) takeFlashes(c *fiber.Ctx) []views.Flash {
	flashes, _ := c.Locals(localFlashes).([]views.Flash)
	if flashes == nil {
		flashes = readFlashCookie(c)
	}
	if len(flashes) == 0 && c.Cookies(flashCookieName) == "" {
		return nil
	}

	c.Locals(localFlashes, []views.Flash{})
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   s.config.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return flashes
}

func readFlashCookie(c *fiber.Ctx) []views.Flash {
	raw := c.Cookies(flashCookieName)
	if raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var flashes []views.Flash
	if err := json.Unmarshal(decoded, &flashes); err != nil {
		return nil
	}

	valid := flashes[:0]
	for _, f := range flashes {
		switch f.Category {
		case views.FlashInfo, views.FlashSuccess, views.FlashDanger:
			valid = append(valid, f)
		}
	}
	return valid
}
