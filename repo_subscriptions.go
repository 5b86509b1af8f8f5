package access

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscriptions is the repository contract for entitlement records.
type Subscriptions interface {
	repository.Repository[*Subscription]

	// GetLatestByProfessional returns the most recently created record
	// for the professional, or nil when none exists.
	GetLatestByProfessional(ctx context.Context, professionalID uuid.UUID) (*Subscription, error)
	GetLatestByProfessionalTx(ctx context.Context, tx bun.IDB, professionalID uuid.UUID) (*Subscription, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status SubscriptionStatus) error

	// Cancel marks the record cancelled and stamps CancelledAt.
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) error

	// Renew opens the next billing period for a professional: it is
	// the only path out of the terminal expired/cancelled states and
	// creates a fresh active record superseding the previous one.
	Renew(ctx context.Context, professionalID uuid.UUID, periodStart, periodEnd time.Time) (*Subscription, error)
}

type subscriptions struct {
	repository.Repository[*Subscription]
	db *bun.DB
}

var (
	_ Subscriptions                        = (*subscriptions)(nil)
	_ repository.Repository[*Subscription] = (*subscriptions)(nil)
)

// NewSubscriptionsRepository builds the bun-backed repository.
func NewSubscriptionsRepository(db *bun.DB) Subscriptions {
	repo := repository.NewRepository[*Subscription](db, repository.ModelHandlers[*Subscription]{
		NewRecord: func() *Subscription { return &Subscription{} },
		GetID: func(s *Subscription) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Subscription, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	return &subscriptions{
		Repository: repo,
		db:         db,
	}
}

func (a *subscriptions) GetLatestByProfessional(ctx context.Context, professionalID uuid.UUID) (*Subscription, error) {
	return a.GetLatestByProfessionalTx(ctx, a.db, professionalID)
}

func (a *subscriptions) GetLatestByProfessionalTx(ctx context.Context, tx bun.IDB, professionalID uuid.UUID) (*Subscription, error) {
	record := &Subscription{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.professional_id = ?", professionalID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

func (a *subscriptions) UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *subscriptions) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status SubscriptionStatus) error {
	_, err := tx.NewUpdate().
		Model((*Subscription)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *subscriptions) Cancel(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := a.db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("status = ?", SubscriptionCancelled).
		Set("cancelled_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *subscriptions) Renew(ctx context.Context, professionalID uuid.UUID, periodStart, periodEnd time.Time) (*Subscription, error) {
	record := &Subscription{
		ProfessionalID:     professionalID,
		Status:             SubscriptionActive,
		TrialEndsAt:        periodStart,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		CreatedAt:          &periodStart,
	}

	return a.Repository.Create(ctx, record)
}
