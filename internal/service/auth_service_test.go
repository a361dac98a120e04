package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"jobboard/internal/cache"
	"jobboard/internal/models"
	"jobboard/internal/repository"
	"jobboard/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fastHasher keeps tests quick while producing real bcrypt hashes.
var fastHasher = bcryptHasher{cost: bcrypt.MinCost}

func assertCode(t *testing.T, err error, code, message string) {
	t.Helper()
	var appErr *models.AppError
	if assert.True(t, errors.As(err, &appErr), "expected AppError, got %v", err) {
		assert.Equal(t, code, appErr.Code)
		if message != "" {
			assert.Equal(t, message, appErr.Message)
		}
	}
}

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewAuthService(repository.NewStore(db), fastHasher, cache.New(nil, "user")), db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		in      RegisterInput
		code    string
		message string
	}{
		{
			name: "Success",
			in:   RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw"},
		},
		{
			name:    "Missing Username",
			in:      RegisterInput{Username: "  ", Email: "a@example.com", Password: "pw", ConfirmPassword: "pw"},
			code:    models.CodeValidation,
			message: MsgAllFieldsRequired,
		},
		{
			name:    "Missing Confirm",
			in:      RegisterInput{Username: "bob", Email: "b@example.com", Password: "pw"},
			code:    models.CodeValidation,
			message: MsgAllFieldsRequired,
		},
		{
			name:    "Password Mismatch",
			in:      RegisterInput{Username: "bob", Email: "b@example.com", Password: "pw", ConfirmPassword: "px"},
			code:    models.CodeValidation,
			message: MsgPasswordsMismatch,
		},
		{
			name: "Username Too Long",
			in:   RegisterInput{Username: strings.Repeat("u", 21), Email: "b@example.com", Password: "pw", ConfirmPassword: "pw"},
			code: models.CodeValidation,
		},
		{
			name: "Bad Email",
			in:   RegisterInput{Username: "bob", Email: "bob-at-example", Password: "pw", ConfirmPassword: "pw"},
			code: models.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newAuthService(t)

			user, err := svc.Register(ctx, tt.in)
			if tt.code != "" {
				assertCode(t, err, tt.code, tt.message)
				assert.Nil(t, user)
				assert.Zero(t, countUsers(t, db))
				return
			}

			require.NoError(t, err)
			require.NotZero(t, user.ID)
			assert.Equal(t, "alice", user.Username)
			assert.NotEqual(t, "pw", user.PasswordHash)
			ok, err := fastHasher.Verify("pw", user.PasswordHash)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.EqualValues(t, 1, countUsers(t, db))
		})
	}
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw", ConfirmPassword: "pw"})
	assertCode(t, err, models.CodeConflict, repository.UsernameTakenMessage)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw"})
	assertCode(t, err, models.CodeConflict, repository.EmailTakenMessage)

	assert.EqualValues(t, 1, countUsers(t, db))
}

// blindUsers hides existing rows from the pre-check so the insert races into the unique index.
type blindUsers struct {
	repository.UserRepository
	calls int
}

func (b *blindUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	b.calls++
	if b.calls == 1 {
		return nil, nil
	}
	return b.UserRepository.GetByUsername(ctx, username)
}

func (b *blindUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, nil
}

type blindStore struct {
	repository.Store
	users *blindUsers
}

func (s *blindStore) Users() repository.UserRepository { return s.users }

func TestAuthService_Register_UniqueIndexIsAuthoritative(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		message string
	}{
		{
			name:    "Username Race",
			in:      RegisterInput{Username: "alice", Email: "new@example.com", Password: "pw", ConfirmPassword: "pw"},
			message: repository.UsernameTakenMessage,
		},
		{
			name:    "Email Race",
			in:      RegisterInput{Username: "newbie", Email: "alice@example.com", Password: "pw", ConfirmPassword: "pw"},
			message: repository.EmailTakenMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewSQLiteDB(t)
			require.NoError(t, db.Create(&models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}).Error)

			real := repository.NewStore(db)
			store := &blindStore{Store: real, users: &blindUsers{UserRepository: real.Users()}}
			svc := NewAuthService(store, fastHasher, cache.New(nil, "user"))

			_, err := svc.Register(context.Background(), tt.in)
			assertCode(t, err, models.CodeConflict, tt.message)
			assert.EqualValues(t, 1, countUsers(t, db))
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "correct", ConfirmPassword: "correct"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " alice@example.com ", "correct")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, wrongPassword := svc.Authenticate(ctx, "alice@example.com", "wrong")
	_, unknownEmail := svc.Authenticate(ctx, "ghost@example.com", "correct")
	_, empty := svc.Authenticate(ctx, "", "")

	for _, err := range []error{wrongPassword, unknownEmail, empty} {
		assertCode(t, err, models.CodeAuthFailed, MsgLoginUnsuccessful)
	}
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_Authenticate_ArgonAndBcryptInterop(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()

	bcryptHash, err := fastHasher.Hash("pw")
	require.NoError(t, err)
	legacy := testutil.CreateUser(t, db, bcryptHash)

	argon := NewPasswordHasher("argon2id")
	svc := NewAuthService(store, argon, cache.New(nil, "user"))

	user, err := svc.Authenticate(ctx, legacy.Email, "pw")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, user.ID)

	created, err := svc.Register(ctx, RegisterInput{Username: "argon", Email: "argon@example.com", Password: "pw2", ConfirmPassword: "pw2"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.PasswordHash, "$argon2id$"))

	_, err = NewAuthService(store, fastHasher, nil).Authenticate(ctx, "argon@example.com", "pw2")
	assert.NoError(t, err)
}

func TestAuthService_CurrentUser(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := testutil.NewSQLiteDB(t)
	svc := NewAuthService(repository.NewStore(db), fastHasher, cache.New(rdb, "user"))
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "hash")

	got, err := svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))
	cached, err := mr.Get(cache.UserKey(u.ID))
	require.NoError(t, err)
	assert.NotContains(t, cached, "hash")

	// Served from cache even after the row is gone.
	require.NoError(t, db.Exec(`DELETE FROM "user" WHERE id = ?`, u.ID).Error)
	got, err = svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)

	_, err = svc.CurrentUser(ctx, 9999)
	assertCode(t, err, models.CodeNotFound, "")
	_, err = svc.CurrentUser(ctx, 0)
	assertCode(t, err, models.CodeNotFound, "")
}
