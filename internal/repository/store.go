package repository

import (
	"context"
	"fmt"
)

// Repositories bundles the repositories bound to one connection or
// transaction.
type Repositories struct {
	Books  BookRepository
	Users  UserRepository
	Issues IssueRepository
}

// NewRepositories binds every repository to q.
func NewRepositories(q Querier) Repositories {
	return Repositories{
		Books:  NewBookRepository(q),
		Users:  NewUserRepository(q),
		Issues: NewIssueRepository(q),
	}
}

// Store hands out repositories and runs units of work that must commit or
// roll back together.
type Store interface {
	Repos() Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

type pgStore struct {
	db    TxBeginner
	repos Repositories
}

// NewStore creates a Store over a pool (or anything that can begin a tx).
func NewStore(db TxBeginner) Store {
	return &pgStore{db: db, repos: NewRepositories(db)}
}

func (s *pgStore) Repos() Repositories { return s.repos }

// WithTx runs fn inside a transaction. Any error or panic from fn rolls
// back every write fn made; the panic is then re-raised.
func (s *pgStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(NewRepositories(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
