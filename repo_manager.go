package access

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Administrators() Administrators
	Professionals() Professionals
	Subscriptions() Subscriptions
	DB() *bun.DB
}

type mngr struct {
	db             *bun.DB
	administrators Administrators
	professionals  Professionals
	subscriptions  Subscriptions
}

// NewRepositoryManager wires the repositories over one bun handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		administrators: NewAdministratorsRepository(db),
		professionals:  NewProfessionalsRepository(db),
		subscriptions:  NewSubscriptionsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.administrators == nil {
		return errors.New("repository administrators should be initialized")
	}

	if m.professionals == nil {
		return errors.New("repository professionals should be initialized")
	}

	if m.subscriptions == nil {
		return errors.New("repository subscriptions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() *bun.DB {
	return m.db
}

func (m mngr) Administrators() Administrators {
	return m.administrators
}

func (m mngr) Professionals() Professionals {
	return m.professionals
}

func (m mngr) Subscriptions() Subscriptions {
	return m.subscriptions
}
