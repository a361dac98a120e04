package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one connection or transaction.
type Store interface {
	Users() UserRepository
	Jobs() JobRepository
	// Transaction runs fn against a Store bound to a single database
	// transaction. It commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db    *gorm.DB
	users UserRepository
	jobs  JobRepository
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:    db,
		users: NewUserRepository(db),
		jobs:  NewJobRepository(db),
	}
}

func (s *gormStore) Users() UserRepository { return s.users }

func (s *gormStore) Jobs() JobRepository { return s.jobs }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
