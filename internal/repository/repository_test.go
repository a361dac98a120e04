package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"jobboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedUser *models.User
		expectedCode string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash"}).
					AddRow(1, "testuser", "test@example.com", "hash")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE "user"."id" = $1 ORDER BY "user"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE "user"."id" = $1 ORDER BY "user"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE "user"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.Nil(t, user)
				assert.Equal(t, tt.expectedCode, models.CodeOf(err))
			} else if assert.NoError(t, err) && assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
				assert.Equal(t, tt.expectedUser.Email, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash"}).
			AddRow(3, "carol", "carol@example.com", "hash")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE email = $1 ORDER BY "user"."id" LIMIT $2`)).
			WithArgs("carol@example.com", 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("Missing Is Nil Without Error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE email = $1`)).
			WithArgs("nobody@example.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE username = $1`)).
		WithArgs("dave", 1).
		WillReturnError(errors.New("broken pipe"))

	user, err := repo.GetByUsername(context.Background(), "dave")
	assert.Nil(t, user)
	assert.Equal(t, models.CodeInternal, models.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name         string
		dbErr        error
		expectedCode string
		expectedMsg  string
	}{
		{name: "Success"},
		{
			name:         "Duplicate Email",
			dbErr:        errors.New(`ERROR: duplicate key value violates unique constraint "idx_user_email" (SQLSTATE 23505)`),
			expectedCode: models.CodeConflict,
			expectedMsg:  EmailTakenMessage,
		},
		{
			name:         "Duplicate Username",
			dbErr:        errors.New(`ERROR: duplicate key value violates unique constraint "idx_user_username" (SQLSTATE 23505)`),
			expectedCode: models.CodeConflict,
			expectedMsg:  UsernameTakenMessage,
		},
		{
			name:         "Other Failure",
			dbErr:        errors.New("disk full"),
			expectedCode: models.CodeInternal,
			expectedMsg:  models.GenericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectBegin()
			insert := mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "user" ("username","email","password_hash") VALUES ($1,$2,$3) RETURNING "id"`)).
				WithArgs("erin", "erin@example.com", "hash")
			if tt.dbErr != nil {
				insert.WillReturnError(tt.dbErr)
				mock.ExpectRollback()
			} else {
				insert.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
				mock.ExpectCommit()
			}

			user := &models.User{Username: "erin", Email: "erin@example.com", PasswordHash: "hash"}
			err := repo.Create(context.Background(), user)

			if tt.expectedCode == "" {
				require.NoError(t, err)
				assert.Equal(t, uint(5), user.ID)
			} else {
				assert.Equal(t, tt.expectedCode, models.CodeOf(err))
				assert.Equal(t, tt.expectedMsg, models.PublicMessage(err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewJobRepository(db)
	now := time.Now().UTC()

	jobRows := sqlmock.NewRows([]string{"id", "title", "description", "date_posted", "is_completed", "user_id"}).
		AddRow(2, "Newer", "d2", now, false, 1).
		AddRow(1, "Older", "d1", now.Add(-time.Hour), true, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "job" ORDER BY date_posted DESC,id DESC`)).
		WillReturnRows(jobRows)

	authorRows := sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(1, "alice", "alice@example.com")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user" WHERE "user"."id" = $1`)).
		WithArgs(1).
		WillReturnRows(authorRows)

	jobs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Newer", jobs[0].Title)
	assert.Equal(t, "alice", jobs[0].Author.Username)
	assert.True(t, jobs[1].IsCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetByIDForUpdate_Locks(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewJobRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "user_id"}).AddRow(4, "Locked", 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "job" WHERE "job"."id" = $1 ORDER BY "job"."id" LIMIT $2 FOR UPDATE`)).
		WithArgs(4, 1).
		WillReturnRows(rows)

	job, err := repo.GetByIDForUpdate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Locked", job.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Update_OnlyEditableColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewJobRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "job" SET "description"=$1,"is_completed"=$2,"title"=$3 WHERE "id" = $4`)).
		WithArgs("new desc", true, "new title", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Job{
		ID:          7,
		Title:       "new title",
		Description: "new desc",
		IsCompleted: true,
		UserID:      99,
		DatePosted:  time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Delete(t *testing.T) {
	tests := []struct {
		name         string
		affected     int64
		dbErr        error
		expectedCode string
	}{
		{name: "Deleted", affected: 1},
		{name: "Missing", affected: 0, expectedCode: models.CodeNotFound},
		{name: "Failure", dbErr: errors.New("deadlock detected"), expectedCode: models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewJobRepository(db)

			mock.ExpectBegin()
			exec := mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "job" WHERE "job"."id" = $1`)).WithArgs(3)
			if tt.dbErr != nil {
				exec.WillReturnError(tt.dbErr)
				mock.ExpectRollback()
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, tt.affected))
				mock.ExpectCommit()
			}

			err := repo.Delete(context.Background(), 3)
			assert.Equal(t, tt.expectedCode, models.CodeOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: user.email")))
	assert.True(t, isUniqueConstraintError(errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'user.idx_user_username'")))
	assert.False(t, isUniqueConstraintError(errors.New("syntax error")))
	assert.False(t, isUniqueConstraintError(nil))
}
