package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	access "github.com/lumehealth/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type storeFixture struct {
	db     *bun.DB
	repo   access.RepositoryManager
	tokens *access.TokenService
	store  *access.Store
}

func newStoreFixture(t *testing.T, now time.Time) *storeFixture {
	t.Helper()

	db, err := access.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// a single conn keeps the in-memory database alive across queries
	db.SetMaxOpenConns(1)

	require.NoError(t, access.RunMigrations(context.Background(), db))

	repo := access.NewRepositoryManager(db)
	tokens := access.NewTokenService([]byte("test-signing-key"), 1, "lumehealth", nil)
	store := access.NewStore(repo, tokens, access.WithStoreClock(fixedClock(now)))

	return &storeFixture{
		db:     db,
		repo:   repo,
		tokens: tokens,
		store:  store,
	}
}

func (fx *storeFixture) countProfessionals(t *testing.T) int {
	t.Helper()
	count, err := fx.db.NewSelect().Model((*access.Professional)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func (fx *storeFixture) countSubscriptions(t *testing.T) int {
	t.Helper()
	count, err := fx.db.NewSelect().Model((*access.Subscription)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestStoreRegistrationCreatesTrial(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)

	actor, err := fx.store.CreateIdentity(context.Background(), validProfile())
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Equal(t, access.RoleProfessional, actor.Role)
	require.NotNil(t, actor.Subscription)
	assert.Equal(t, access.SubscriptionTrial, actor.Subscription.Status)
	assert.Equal(t, t0.Add(access.TrialPeriod), actor.Subscription.TrialEndsAt)

	assert.Equal(t, 1, fx.countProfessionals(t))
	assert.Equal(t, 1, fx.countSubscriptions(t))

	// the stored record round-trips as the professional's latest
	stored, err := fx.store.FindLatestSubscription(context.Background(), actor.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, access.SubscriptionTrial, stored.Status)
	assert.Equal(t, actor.ID, stored.ProfessionalID)
}

func TestStoreRegistrationDuplicateEmail(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)

	profile := validProfile()
	_, err := fx.store.CreateIdentity(context.Background(), profile)
	require.NoError(t, err)

	actor, err := fx.store.CreateIdentity(context.Background(), profile)
	assert.Nil(t, actor)
	assert.True(t, access.IsDuplicateEmail(err))

	assert.Equal(t, 1, fx.countProfessionals(t))
	assert.Equal(t, 1, fx.countSubscriptions(t))
}

func TestStoreRegistrationRollsBackWithoutSubscription(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)

	// force the subscription insert to fail mid-transaction
	_, err := fx.db.ExecContext(context.Background(), `DROP TABLE subscriptions`)
	require.NoError(t, err)

	actor, err := fx.store.CreateIdentity(context.Background(), validProfile())
	assert.Nil(t, actor)
	require.Error(t, err)

	// no credential exists without its trial record
	assert.Equal(t, 0, fx.countProfessionals(t))
}

func TestStoreAuthenticate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)
	ctx := context.Background()

	profile := validProfile()
	registered, err := fx.store.CreateIdentity(ctx, profile)
	require.NoError(t, err)

	t.Run("professional with subscription attached", func(t *testing.T) {
		actor, err := fx.store.Authenticate(ctx, profile.Email, profile.Password)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, actor.ID)
		assert.Equal(t, access.RoleProfessional, actor.Role)
		require.NotNil(t, actor.Subscription)
		assert.Equal(t, access.SubscriptionTrial, actor.Subscription.Status)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, errWrong := fx.store.Authenticate(ctx, profile.Email, "not-the-password")
		_, errUnknown := fx.store.Authenticate(ctx, "nobody@example.com", profile.Password)

		assert.ErrorIs(t, errWrong, access.ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, access.ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("admin wins on a shared email", func(t *testing.T) {
		hash, err := access.HashPassword("shared-secret-1234")
		require.NoError(t, err)

		_, err = fx.repo.Administrators().Create(ctx, &access.Administrator{
			ID:           uuid.New(),
			Name:         "Root",
			Email:        "shared@example.com",
			PasswordHash: hash,
		})
		require.NoError(t, err)

		_, err = fx.repo.Professionals().Register(ctx, &access.Professional{
			ID:           uuid.New(),
			Name:         "Shadow",
			Email:        "shared@example.com",
			PasswordHash: hash,
		})
		require.NoError(t, err)

		actor, err := fx.store.Authenticate(ctx, "shared@example.com", "shared-secret-1234")
		require.NoError(t, err)
		assert.Equal(t, access.RoleAdmin, actor.Role)
	})
}

func TestStoreResolveCredential(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)
	ctx := context.Background()

	registered, err := fx.store.CreateIdentity(ctx, validProfile())
	require.NoError(t, err)

	credential, err := fx.tokens.Mint(registered)
	require.NoError(t, err)

	actor, err := fx.store.ResolveCredential(ctx, credential)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, actor.ID)
	require.NotNil(t, actor.Subscription)

	// revocation is permanent: the signature still verifies but the
	// credential no longer resolves
	require.NoError(t, fx.store.Invalidate(ctx, credential))

	actor, err = fx.store.ResolveCredential(ctx, credential)
	assert.Nil(t, actor)
	assert.ErrorIs(t, err, access.ErrStaleSession)
}

func TestStoreResolveCredentialGarbage(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fx := newStoreFixture(t, t0)

	actor, err := fx.store.ResolveCredential(context.Background(), "not-a-jwt")
	assert.Nil(t, actor)
	assert.ErrorIs(t, err, access.ErrStaleSession)
}
