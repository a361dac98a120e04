package seed

import (
	"context"
	"fmt"
	"log/slog"

	"jobboard/internal/middleware"
	"jobboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users            int
	JobsPerUser      int
	MaxDays          int
	CompletedPercent int
	Clean            bool
	BcryptCost       int
	RandomSeed       int64
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 60
	}
	if o.CompletedPercent < 0 || o.CompletedPercent > 100 {
		o.CompletedPercent = 20
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}

// Summary reports what a run inserted.
type Summary struct {
	Users int
	Jobs  int
}

// Seed inserts opts.Users random accounts, each with opts.JobsPerUser jobs.
// With opts.Clean all jobs and users are removed first.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	summary := &Summary{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := Clear(tx); err != nil {
				return err
			}
		}

		f := NewFactory(tx, opts)
		for i := 0; i < opts.Users; i++ {
			user, err := f.CreateUser(DefaultPassword)
			if err != nil {
				return err
			}
			summary.Users++

			jobs := make([]*models.Job, 0, opts.JobsPerUser)
			for j := 0; j < opts.JobsPerUser; j++ {
				jobs = append(jobs, f.BuildJob(user))
			}
			if err := f.CreateJobs(jobs); err != nil {
				return fmt.Errorf("create jobs for %s: %w", user.Username, err)
			}
			summary.Jobs += len(jobs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", summary.Users),
		slog.Int("jobs", summary.Jobs),
	)
	return summary, nil
}

// Clear deletes every job, then every user.
func Clear(db *gorm.DB) error {
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Job{}).Error; err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}
