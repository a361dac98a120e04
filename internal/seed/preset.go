package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"jobboard/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Preset is a hand-written data set, usually loaded from YAML:
//
//	users:
//	  - username: alice
//	    email: alice@example.com
//	    password: secret
//	    jobs:
//	      - title: Gardener
//	        description: Tend the roses
//	        days_ago: 3
type Preset struct {
	Users []PresetUser `yaml:"users"`
}

type PresetUser struct {
	Username string      `yaml:"username"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Jobs     []PresetJob `yaml:"jobs"`
}

type PresetJob struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Completed   bool   `yaml:"completed"`
	DaysAgo     int    `yaml:"days_ago"`
}

// LoadPreset reads and parses a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(raw)
}

// ParsePreset parses YAML preset content. Unknown keys are rejected.
func ParsePreset(raw []byte) (*Preset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var p Preset
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	for i, u := range p.Users {
		if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Email) == "" {
			return nil, fmt.Errorf("preset user %d: username and email are required", i)
		}
		for j, job := range u.Jobs {
			if strings.TrimSpace(job.Title) == "" || strings.TrimSpace(job.Description) == "" {
				return nil, fmt.Errorf("preset user %s job %d: title and description are required", u.Username, j)
			}
		}
	}
	return &p, nil
}

// ApplyPreset inserts the preset's users and jobs in one transaction.
func ApplyPreset(ctx context.Context, db *gorm.DB, p *Preset, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	summary := &Summary{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := Clear(tx); err != nil {
				return err
			}
		}

		f := NewFactory(tx, opts)
		now := time.Now().UTC()
		for _, pu := range p.Users {
			user, err := f.CreateUser(pu.Password, func(u *models.User) {
				u.Username = strings.TrimSpace(pu.Username)
				u.Email = strings.TrimSpace(pu.Email)
			})
			if err != nil {
				return err
			}
			summary.Users++

			jobs := make([]*models.Job, 0, len(pu.Jobs))
			for _, pj := range pu.Jobs {
				jobs = append(jobs, f.BuildJob(user, func(j *models.Job) {
					j.Title = strings.TrimSpace(pj.Title)
					j.Description = strings.TrimSpace(pj.Description)
					j.IsCompleted = pj.Completed
					j.DatePosted = now.Add(-time.Duration(pj.DaysAgo) * 24 * time.Hour)
				}))
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
	return summary, nil
}
