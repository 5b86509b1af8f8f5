package access

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Professionals is the repository contract for practitioner records.
type Professionals interface {
	repository.Repository[*Professional]

	GetByEmail(ctx context.Context, email string) (*Professional, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Professional, error)

	Register(ctx context.Context, record *Professional) (*Professional, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Professional) (*Professional, error)
}

type professionals struct {
	repository.Repository[*Professional]
	db *bun.DB
}

var (
	_ Professionals                        = (*professionals)(nil)
	_ repository.Repository[*Professional] = (*professionals)(nil)
)

// NewProfessionalsRepository builds the bun-backed repository.
func NewProfessionalsRepository(db *bun.DB) Professionals {
	repo := repository.NewRepository[*Professional](db, repository.ModelHandlers[*Professional]{
		NewRecord: func() *Professional { return &Professional{} },
		GetID: func(p *Professional) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Professional, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &professionals{
		Repository: repo,
		db:         db,
	}
}

func (a *professionals) GetByEmail(ctx context.Context, email string) (*Professional, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *professionals) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Professional, error) {
	record := &Professional{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Where("?TableAlias.deleted_at IS NULL").
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

func (a *professionals) Register(ctx context.Context, record *Professional) (*Professional, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *professionals) RegisterTx(ctx context.Context, tx bun.IDB, record *Professional) (*Professional, error) {
	record.Email = normalizeEmail(record.Email)
	return a.Repository.CreateTx(ctx, tx, record)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
