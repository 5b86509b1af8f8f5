package access

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Administrators is the repository contract for back-office identities.
type Administrators interface {
	repository.Repository[*Administrator]

	GetByEmail(ctx context.Context, email string) (*Administrator, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Administrator, error)
}

type administrators struct {
	repository.Repository[*Administrator]
	db *bun.DB
}

var (
	_ Administrators                        = (*administrators)(nil)
	_ repository.Repository[*Administrator] = (*administrators)(nil)
)

// NewAdministratorsRepository builds the bun-backed repository.
func NewAdministratorsRepository(db *bun.DB) Administrators {
	repo := repository.NewRepository[*Administrator](db, repository.ModelHandlers[*Administrator]{
		NewRecord: func() *Administrator { return &Administrator{} },
		GetID: func(a *Administrator) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Administrator, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &administrators{
		Repository: repo,
		db:         db,
	}
}

func (a *administrators) GetByEmail(ctx context.Context, email string) (*Administrator, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *administrators) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Administrator, error) {
	record := &Administrator{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}
