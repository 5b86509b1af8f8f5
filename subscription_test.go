package access_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	access "github.com/lumehealth/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	proID := uuid.New()

	tests := []struct {
		name       string
		sub        *access.Subscription
		wantStatus access.SubscriptionStatus
		wantChange bool
	}{
		{
			name: "nil record stays nil",
			sub:  nil,
		},
		{
			name: "trial before boundary passes through",
			sub: &access.Subscription{
				ID:             uuid.New(),
				ProfessionalID: proID,
				Status:         access.SubscriptionTrial,
				TrialEndsAt:    now.Add(time.Second),
			},
			wantStatus: access.SubscriptionTrial,
		},
		{
			name: "trial exactly at boundary expires",
			sub: &access.Subscription{
				ID:             uuid.New(),
				ProfessionalID: proID,
				Status:         access.SubscriptionTrial,
				TrialEndsAt:    now,
			},
			wantStatus: access.SubscriptionExpired,
			wantChange: true,
		},
		{
			name: "trial past boundary expires",
			sub: &access.Subscription{
				ID:             uuid.New(),
				ProfessionalID: proID,
				Status:         access.SubscriptionTrial,
				TrialEndsAt:    now.Add(-24 * time.Hour),
			},
			wantStatus: access.SubscriptionExpired,
			wantChange: true,
		},
		{
			name: "active before period end passes through",
			sub: &access.Subscription{
				ID:               uuid.New(),
				ProfessionalID:   proID,
				Status:           access.SubscriptionActive,
				CurrentPeriodEnd: now.Add(30 * 24 * time.Hour),
			},
			wantStatus: access.SubscriptionActive,
		},
		{
			name: "active at period end expires",
			sub: &access.Subscription{
				ID:               uuid.New(),
				ProfessionalID:   proID,
				Status:           access.SubscriptionActive,
				CurrentPeriodEnd: now,
			},
			wantStatus: access.SubscriptionExpired,
			wantChange: true,
		},
		{
			name: "expired is terminal",
			sub: &access.Subscription{
				ID:             uuid.New(),
				ProfessionalID: proID,
				Status:         access.SubscriptionExpired,
				TrialEndsAt:    now.Add(-time.Hour),
			},
			wantStatus: access.SubscriptionExpired,
		},
		{
			name: "cancelled is terminal",
			sub: &access.Subscription{
				ID:             uuid.New(),
				ProfessionalID: proID,
				Status:         access.SubscriptionCancelled,
				TrialEndsAt:    now.Add(-time.Hour),
			},
			wantStatus: access.SubscriptionCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effective, transitioned := access.EvaluateSubscription(tt.sub, now)

			assert.Equal(t, tt.wantChange, transitioned)
			if tt.sub == nil {
				assert.Nil(t, effective)
				return
			}

			require.NotNil(t, effective)
			assert.Equal(t, tt.wantStatus, effective.Status)
			assert.Equal(t, tt.sub.ID, effective.ID)

			if tt.wantChange {
				// the input record must never be mutated
				assert.NotEqual(t, access.SubscriptionExpired, tt.sub.Status)
			}
		})
	}
}

func TestEvaluatorPersistsTransitionExactlyOnce(t *testing.T) {
	now := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	sub := trialSubscription(uuid.New(), now.Add(-4*24*time.Hour))

	writer := &MockSubscriptionWriter{}
	writer.On("UpdateSubscriptionStatus", mock.Anything, sub.ID, access.SubscriptionExpired).
		Return(nil).Once()

	sink := &RecordingSink{}
	evaluator := access.NewEvaluator(writer,
		access.WithEvaluatorClock(fixedClock(now)),
		access.WithEvaluatorActivitySink(sink),
	)

	effective, err := evaluator.Evaluate(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, access.SubscriptionExpired, effective.Status)

	// re-evaluating the already-expired record is a no-op
	again, err := evaluator.Evaluate(context.Background(), effective)
	require.NoError(t, err)
	assert.Equal(t, effective, again)

	writer.AssertExpectations(t)
	assert.Equal(t, []access.ActivityEventType{access.ActivityEventSubscriptionExpired}, sink.Types())
}

func TestEvaluatorNoWriteBeforeBoundary(t *testing.T) {
	now := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	sub := trialSubscription(uuid.New(), now.Add(-time.Hour))

	writer := &MockSubscriptionWriter{}
	evaluator := access.NewEvaluator(writer, access.WithEvaluatorClock(fixedClock(now)))

	effective, err := evaluator.Evaluate(context.Background(), sub)
	require.NoError(t, err)
	assert.Same(t, sub, effective)

	writer.AssertNotCalled(t, "UpdateSubscriptionStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluatorSurfacesWriteFailure(t *testing.T) {
	now := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	sub := trialSubscription(uuid.New(), now.Add(-5*24*time.Hour))

	writer := &MockSubscriptionWriter{}
	writer.On("UpdateSubscriptionStatus", mock.Anything, sub.ID, access.SubscriptionExpired).
		Return(assert.AnError).Once()

	evaluator := access.NewEvaluator(writer, access.WithEvaluatorClock(fixedClock(now)))

	effective, err := evaluator.Evaluate(context.Background(), sub)
	assert.Nil(t, effective)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
	assert.Equal(t, access.TextCodeStoreUnavailable, richErr.TextCode)

	writer.AssertExpectations(t)
}

func TestEvaluatorResolve(t *testing.T) {
	now := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	proID := uuid.New()

	t.Run("no record resolves to nil", func(t *testing.T) {
		writer := &MockSubscriptionWriter{}
		writer.On("FindLatestSubscription", mock.Anything, proID).Return(nil, nil).Once()

		evaluator := access.NewEvaluator(writer, access.WithEvaluatorClock(fixedClock(now)))

		sub, err := evaluator.Resolve(context.Background(), proID)
		require.NoError(t, err)
		assert.Nil(t, sub)
		writer.AssertExpectations(t)
	})

	t.Run("stale record expires on resolve", func(t *testing.T) {
		stored := trialSubscription(proID, now.Add(-4*24*time.Hour))

		writer := &MockSubscriptionWriter{}
		writer.On("FindLatestSubscription", mock.Anything, proID).Return(stored, nil).Once()
		writer.On("UpdateSubscriptionStatus", mock.Anything, stored.ID, access.SubscriptionExpired).
			Return(nil).Once()

		evaluator := access.NewEvaluator(writer, access.WithEvaluatorClock(fixedClock(now)))

		sub, err := evaluator.Resolve(context.Background(), proID)
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, access.SubscriptionExpired, sub.Status)
		writer.AssertExpectations(t)
	})
}

func TestNewTrialSubscription(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	proID := uuid.New()

	sub := access.NewTrialSubscription(proID, now)

	assert.Equal(t, proID, sub.ProfessionalID)
	assert.Equal(t, access.SubscriptionTrial, sub.Status)
	assert.Equal(t, now.Add(access.TrialPeriod), sub.TrialEndsAt)
	assert.Equal(t, now, sub.CurrentPeriodStart)
	assert.Equal(t, sub.TrialEndsAt, sub.CurrentPeriodEnd)
	assert.True(t, sub.Entitled())
}
