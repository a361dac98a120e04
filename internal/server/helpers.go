package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

const (
	localCurrentUser = "currentUser"
	notFoundMessage  = "The page you were looking for does not exist."
)

// parseID extracts a route parameter as a positive uint. Anything else is a
// missing page, the same as an unmatched route.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// currentUser returns the signed-in user resolved by LoadSession, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localCurrentUser).(*models.User)
	return user
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// render fills the fields every page shares and writes the template with status.
func (s *Server) render(c *fiber.Ctx, status int, name string, page views.Page) error {
	page.CurrentUser = currentUser(c)
	page.Now = nowUTC()
	page.Flashes = append(s.takeFlashes(c), page.Flashes...)
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		page.CSRFToken = token
	}
	return c.Status(status).Render(name, page)
}

// redirect sends a 303 so the browser follows up with GET.
func redirect(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

// logInternal records the detail of an INTERNAL_ERROR that users only see generically.
func logInternal(c *fiber.Ctx, msg string, err error) {
	middleware.Logger.ErrorContext(c.UserContext(), msg,
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
}

// ErrorHandler renders the error page. Only fiber.Error messages, which are
// written by this application, reach the user; anything else is generic.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := models.GenericErrorMessage

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
		if code == fiber.StatusNotFound {
			message = notFoundMessage
		}
	case models.CodeOf(err) == models.CodeNotFound:
		code = fiber.StatusNotFound
		message = notFoundMessage
	default:
		logInternal(c, "unhandled request error", err)
	}

	page := views.Page{
		Title:   http.StatusText(code),
		Status:  code,
		Message: message,
	}
	if renderErr := s.render(c, code, "error", page); renderErr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "error page render failed", slog.String("error", renderErr.Error()))
		return c.Status(code).SendString(message)
	}
	return nil
}
