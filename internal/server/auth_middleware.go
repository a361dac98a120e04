package server

import (
	"errors"
	"log/slog"
	"net/url"

	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/service"
	"jobboard/internal/session"
	"jobboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

// LoadSession resolves the session cookie into the current user. Requests
// without a usable session continue anonymously.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isOperationalPath(c.Path()) {
			return c.Next()
		}

		claims, err := s.sessions.Resolve(c)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				s.sessions.ClearCookie(c)
			}
			return c.Next()
		}

		user, err := s.auth.CurrentUser(c.UserContext(), claims.UserID)
		if err != nil {
			if models.CodeOf(err) == models.CodeNotFound {
				s.sessions.ClearCookie(c)
			} else {
				middleware.Logger.WarnContext(c.UserContext(), "session user lookup failed",
					slog.Uint64("account_id", uint64(claims.UserID)),
					slog.String("error", err.Error()),
				)
			}
			return c.Next()
		}

		c.Locals(middleware.LocalUserID, user.ID)
		c.Locals(localCurrentUser, user)
		return c.Next()
	}
}

// AuthRequired sends anonymous visitors to the login page, remembering where they were going.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		s.flash(c, views.FlashInfo, service.MsgLoginRequired)
		return redirect(c, "/login?next="+url.QueryEscape(c.Path()))
	}
}

// RedirectIfAuthenticated keeps signed-in users away from the login and register pages.
func (s *Server) RedirectIfAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return redirect(c, "/")
		}
		return c.Next()
	}
}
