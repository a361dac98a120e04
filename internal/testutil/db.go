// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"jobboard/internal/database"
	"jobboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB returns a migrated in-memory SQLite database private to the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, time.Now().UnixNano())

	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given password hash and fake identity.
func CreateUser(t *testing.T, db *gorm.DB, passwordHash string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     truncate(gofakeit.Username(), 14) + gofakeit.DigitN(6),
		Email:        fmt.Sprintf("%s%s@example.com", truncate(strings.ToLower(gofakeit.FirstName()), 20), gofakeit.DigitN(8)),
		PasswordHash: passwordHash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateJob inserts a job for author posted at the given time.
func CreateJob(t *testing.T, db *gorm.DB, author *models.User, postedAt time.Time) *models.Job {
	t.Helper()

	job := &models.Job{
		Title:       truncate(gofakeit.JobTitle(), 100),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		DatePosted:  postedAt.UTC(),
		UserID:      author.ID,
	}
	if err := db.Omit("Author").Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) > n {
		return s[:n]
	}
	return s
}
