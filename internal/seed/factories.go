// Package seed creates demo users and jobs for development databases.
package seed

import (
	"fmt"
	"strings"
	"time"

	"jobboard/internal/models"
	"jobboard/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options

	hash string
	seq  int
}

// NewFactory creates a Factory bound to db. A zero opts.RandomSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, faker: gofakeit.New(seed), opts: opts.withDefaults()}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash(password string) (string, error) {
	if password == "" || password == DefaultPassword {
		if f.hash == "" {
			h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.BcryptCost)
			if err != nil {
				return "", err
			}
			f.hash = string(h)
		}
		return f.hash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), f.opts.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// BuildUser returns an unsaved user with a unique fake identity.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.seq++
	suffix := fmt.Sprintf("%d", f.seq)

	base := strings.ToLower(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, f.faker.Username()))
	if base == "" {
		base = "user"
	}
	if limit := validation.UsernameMaxLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}

	user := &models.User{
		Username: base + suffix,
		Email:    fmt.Sprintf("%s%s@%s", base, suffix, f.faker.DomainName()),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser persists a user whose password is password (DefaultPassword when empty).
func (f *Factory) CreateUser(password string, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	hash, err := f.passwordHash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := f.db.Omit("Jobs").Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildJob returns an unsaved job for author posted within the last MaxDays.
func (f *Factory) BuildJob(author *models.User, overrides ...func(*models.Job)) *models.Job {
	title := fmt.Sprintf("%s %s", f.faker.JobDescriptor(), f.faker.JobTitle())
	if len(title) > validation.TitleMaxLength {
		title = title[:validation.TitleMaxLength]
	}

	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	job := &models.Job{
		Title: title,
		Description: fmt.Sprintf("%s is hiring. %s",
			f.faker.Company(), f.faker.Paragraph(1, 3, 12, " ")),
		DatePosted:  time.Now().UTC().Add(-back),
		IsCompleted: f.faker.Number(1, 100) <= f.opts.CompletedPercent,
		UserID:      author.ID,
	}
	for _, override := range overrides {
		override(job)
	}
	return job
}

// CreateJobs persists jobs in a single insert.
func (f *Factory) CreateJobs(jobs []*models.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	return f.db.Omit("Author").Create(&jobs).Error
}
