package server

import (
	"log/slog"
	"strings"

	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/service"
	"jobboard/internal/session"
	"jobboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

// Flash messages for account flows.
const (
	MsgRegistered  = "Your account has been created! You are now able to log in."
	MsgLoggedIn    = "Login successful!"
	MsgLoggedOut   = "You have been logged out."
	registerTitle  = "Register"
	loginPageTitle = "Login"
)

// RegisterForm handles GET /register
func (s *Server) RegisterForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "register", views.Page{Title: registerTitle})
}

// Register handles POST /register
func (s *Server) Register(c *fiber.Ctx) error {
	in := service.RegisterInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}

	if _, err := s.auth.Register(c.UserContext(), in); err != nil {
		status := fiber.StatusInternalServerError
		switch models.CodeOf(err) {
		case models.CodeValidation:
			status = fiber.StatusUnprocessableEntity
		case models.CodeConflict:
			status = fiber.StatusConflict
		default:
			logInternal(c, "registration failed", err)
		}
		return s.render(c, status, "register", views.Page{
			Title:   registerTitle,
			Flashes: []views.Flash{{Category: views.FlashDanger, Message: models.PublicMessage(err)}},
			Form: views.Form{
				Username: strings.TrimSpace(in.Username),
				Email:    strings.TrimSpace(in.Email),
			},
		})
	}

	s.flash(c, views.FlashSuccess, MsgRegistered)
	return redirect(c, "/login")
}

// LoginForm handles GET /login
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", views.Page{
		Title: loginPageTitle,
		Next:  c.Query("next"),
	})
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	remember := c.FormValue("remember") != ""

	user, err := s.auth.Authenticate(c.UserContext(), email, c.FormValue("password"))
	if err == nil {
		err = s.sessions.Login(c, user.ID, remember)
		if err != nil {
			err = models.NewInternalError(err)
		}
	}
	if err != nil {
		status := fiber.StatusUnauthorized
		if models.CodeOf(err) != models.CodeAuthFailed {
			status = fiber.StatusInternalServerError
			logInternal(c, "login failed", err)
		}
		return s.render(c, status, "login", views.Page{
			Title:   loginPageTitle,
			Next:    c.Query("next"),
			Flashes: []views.Flash{{Category: views.FlashDanger, Message: models.PublicMessage(err)}},
			Form:    views.Form{Email: strings.TrimSpace(email), Remember: remember},
		})
	}

	middleware.Logger.InfoContext(c.UserContext(), "user logged in",
		slog.Uint64("account_id", uint64(user.ID)),
		slog.Bool("remember", remember),
	)
	s.flash(c, views.FlashSuccess, MsgLoggedIn)
	return redirect(c, session.SafeNext(c.Query("next")))
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		// The cookie is already expired; the token simply stays valid until it lapses.
		middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", slog.String("error", err.Error()))
	}
	s.auth.RecordLogout()

	s.flash(c, views.FlashInfo, MsgLoggedOut)
	return redirect(c, "/")
}
