// Command seed fills the database with demo users and jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"jobboard/internal/bootstrap"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	users := flag.Int("users", 10, "Number of users to create")
	jobsPerUser := flag.Int("jobs", 3, "Number of jobs per user")
	clean := flag.Bool("clean", false, "Delete all jobs and users before seeding")
	preset := flag.String("preset", "", "Path to a YAML preset; replaces the random data set")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed a %s database", cfg.Env)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	opts := seed.Options{Users: *users, JobsPerUser: *jobsPerUser, Clean: *clean}

	var summary *seed.Summary
	if *preset != "" {
		p, err := seed.LoadPreset(*preset)
		if err != nil {
			return err
		}
		summary, err = seed.ApplyPreset(ctx, db, p, opts)
		if err != nil {
			return fmt.Errorf("apply preset: %w", err)
		}
	} else {
		summary, err = seed.Seed(ctx, db, opts)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	log.Printf("seeded %d users and %d jobs", summary.Users, summary.Jobs)
	log.Printf("generated accounts use the password %q", seed.DefaultPassword)
	return nil
}
