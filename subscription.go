package access

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EvaluateSubscription computes the effective status of a subscription
// at the given instant. It is pure: the input record is not mutated
// and no I/O happens. The second return reports whether a lazy expiry
// transition occurred and needs persisting.
//
// Transitions are read-triggered, never timer-driven: trial records
// expire once now >= TrialEndsAt, active records once
// now >= CurrentPeriodEnd. The comparison is exact; there is no grace
// window. Cancelled and already-expired records pass through
// unchanged, as does a nil record (a professional without a
// subscription has no entitlement to expire).
func EvaluateSubscription(sub *Subscription, now time.Time) (*Subscription, bool) {
	if sub == nil {
		return nil, false
	}

	switch sub.Status {
	case SubscriptionTrial:
		if !now.Before(sub.TrialEndsAt) {
			return expiredCopy(sub), true
		}
	case SubscriptionActive:
		if !now.Before(sub.CurrentPeriodEnd) {
			return expiredCopy(sub), true
		}
	}

	return sub, false
}

func expiredCopy(sub *Subscription) *Subscription {
	expired := *sub
	expired.Status = SubscriptionExpired
	return &expired
}

// SubscriptionWriter is the slice of the identity store the evaluator
// needs to persist lazy transitions.
type SubscriptionWriter interface {
	FindLatestSubscription(ctx context.Context, professionalID uuid.UUID) (*Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error
}

// Evaluator pairs the pure evaluation with the write-back effect:
// when a record crosses its boundary the transition is persisted once
// and the updated record returned. The clock is injectable for tests.
type Evaluator struct {
	store  SubscriptionWriter
	now    func() time.Time
	logger Logger
	sink   ActivitySink
}

// EvaluatorOption customizes an Evaluator
type EvaluatorOption func(*Evaluator)

// WithEvaluatorClock injects a custom clock
func WithEvaluatorClock(clock func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithEvaluatorLogger overrides the evaluator's logger
func WithEvaluatorLogger(logger Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEvaluatorActivitySink attaches an audit sink for expiry events
func WithEvaluatorActivitySink(sink ActivitySink) EvaluatorOption {
	return func(e *Evaluator) {
		e.sink = normalizeActivitySink(sink)
	}
}

// NewEvaluator returns an Evaluator backed by the given store slice.
func NewEvaluator(store SubscriptionWriter, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		store:  store,
		now:    time.Now,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate applies lazy expiry to the record and persists the
// transition when one occurred. Already-expired and cancelled records
// produce no writes, so repeated evaluation is idempotent.
func (e *Evaluator) Evaluate(ctx context.Context, sub *Subscription) (*Subscription, error) {
	effective, transitioned := EvaluateSubscription(sub, e.now())
	if !transitioned {
		return effective, nil
	}

	if err := e.store.UpdateSubscriptionStatus(ctx, effective.ID, effective.Status); err != nil {
		e.logger.Error("failed to persist subscription expiry", "subscription_id", effective.ID, "error", err)
		return nil, storeFailure(err)
	}

	e.logger.Info("subscription lazily expired",
		"subscription_id", effective.ID,
		"professional_id", effective.ProfessionalID,
	)

	if err := e.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventSubscriptionExpired,
		UserID:     effective.ProfessionalID.String(),
		Role:       RoleProfessional,
		Metadata:   map[string]any{"subscription_id": effective.ID.String()},
		OccurredAt: e.now(),
	}); err != nil {
		e.logger.Error("activity sink rejected expiry event", "error", err)
	}

	return effective, nil
}

// Resolve loads the professional's latest subscription and evaluates
// it. A professional with no record resolves to nil.
func (e *Evaluator) Resolve(ctx context.Context, professionalID uuid.UUID) (*Subscription, error) {
	sub, err := e.store.FindLatestSubscription(ctx, professionalID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return e.Evaluate(ctx, sub)
}
