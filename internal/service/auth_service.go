package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobboard/internal/cache"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/observability"
	"jobboard/internal/repository"
	"jobboard/internal/validation"
)

// Messages shown for authentication outcomes.
const (
	MsgAllFieldsRequired  = "All fields are required!"
	MsgPasswordsMismatch  = "Passwords do not match!"
	MsgLoginUnsuccessful  = "Login Unsuccessful. Please check email and password"
	dummyPasswordForTimer = "jobboard-timing-equaliser"
)

type AuthService struct {
	store     repository.Store
	hasher    PasswordHasher
	userCache *cache.Cache
	dummyHash string
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// NewAuthService wires the service. userCache may wrap a nil Redis client.
func NewAuthService(store repository.Store, hasher PasswordHasher, userCache *cache.Cache) *AuthService {
	s := &AuthService{
		store:     store,
		hasher:    hasher,
		userCache: userCache,
	}
	// Unknown emails still pay for one hash comparison.
	if h, err := hasher.Hash(dummyPasswordForTimer); err == nil {
		s.dummyHash = h
	}
	return s
}

// Register validates the form, hashes the password and inserts the user in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "Register")
	defer func() {
		observability.AuthEvents.WithLabelValues("register", observability.Outcome(models.CodeOf(err))).Inc()
		observability.EndSpan(span, err)
	}()

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" || email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, models.NewValidationError(MsgAllFieldsRequired)
	}
	if in.Password != in.ConfirmPassword {
		return nil, models.NewValidationError(MsgPasswordsMismatch)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Best-effort pre-check; the unique indexes are authoritative.
	if err := s.checkAvailable(ctx, s.store, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user = &models.User{Username: username, Email: email, PasswordHash: hash}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		if models.CodeOf(err) == models.CodeConflict {
			return nil, s.conflictFor(ctx, username, err)
		}
		return nil, asInternal(err)
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, store repository.Store, username, email string) error {
	existing, err := store.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError(repository.UsernameTakenMessage)
	}

	existing, err = store.Users().GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError(repository.EmailTakenMessage)
	}
	return nil
}

// conflictFor names the field that lost a registration race. Some drivers
// report the violated index; others only say "duplicated key".
func (s *AuthService) conflictFor(ctx context.Context, username string, cause error) error {
	if existing, err := s.store.Users().GetByUsername(ctx, username); err == nil && existing != nil {
		return &models.AppError{Code: models.CodeConflict, Message: repository.UsernameTakenMessage, Err: cause}
	}
	return &models.AppError{Code: models.CodeConflict, Message: repository.EmailTakenMessage, Err: cause}
}

// Authenticate checks credentials. Unknown email and wrong password produce the same AUTH_FAILED error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "Authenticate")
	defer func() {
		observability.AuthEvents.WithLabelValues("login", observability.Outcome(models.CodeOf(err))).Inc()
		observability.EndSpan(span, err)
	}()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.NewAuthFailedError(MsgLoginUnsuccessful)
	}

	user, err = s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, asInternal(err)
	}
	if user == nil {
		if s.dummyHash != "" {
			_, _ = s.hasher.Verify(password, s.dummyHash)
		}
		return nil, models.NewAuthFailedError(MsgLoginUnsuccessful)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "stored password hash unreadable",
			slog.Uint64("account_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return nil, models.NewAuthFailedError(MsgLoginUnsuccessful)
	}
	if !ok {
		return nil, models.NewAuthFailedError(MsgLoginUnsuccessful)
	}
	return user, nil
}

// RecordLogout counts a completed logout.
func (s *AuthService) RecordLogout() {
	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
}

// CurrentUser resolves the user behind a session, cache-aside through Redis.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewNotFoundError("User", userID)
	}

	var user models.User
	err := s.userCache.Aside(ctx, cache.UserKey(userID), &user, cache.UserTTL, func() error {
		found, err := s.store.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// asInternal keeps taxonomy errors and wraps anything else as INTERNAL_ERROR.
func asInternal(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
