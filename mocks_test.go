package access_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	access "github.com/lumehealth/go-access"
	"github.com/stretchr/testify/mock"
)

// MockIdentityStore implements access.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) Authenticate(ctx context.Context, email, password string) (*access.Actor, error) {
	args := m.Called(ctx, email, password)
	return actorArg(args.Get(0)), args.Error(1)
}

func (m *MockIdentityStore) CreateIdentity(ctx context.Context, profile access.RegisterProfile) (*access.Actor, error) {
	args := m.Called(ctx, profile)
	return actorArg(args.Get(0)), args.Error(1)
}

func (m *MockIdentityStore) Invalidate(ctx context.Context, credential string) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockIdentityStore) ResolveCredential(ctx context.Context, credential string) (*access.Actor, error) {
	args := m.Called(ctx, credential)
	return actorArg(args.Get(0)), args.Error(1)
}

func (m *MockIdentityStore) FindAdminByID(ctx context.Context, id uuid.UUID) (*access.Administrator, error) {
	args := m.Called(ctx, id)
	admin, _ := args.Get(0).(*access.Administrator)
	return admin, args.Error(1)
}

func (m *MockIdentityStore) FindProfessionalByID(ctx context.Context, id uuid.UUID) (*access.Professional, error) {
	args := m.Called(ctx, id)
	pro, _ := args.Get(0).(*access.Professional)
	return pro, args.Error(1)
}

func (m *MockIdentityStore) FindLatestSubscription(ctx context.Context, professionalID uuid.UUID) (*access.Subscription, error) {
	args := m.Called(ctx, professionalID)
	return subscriptionArg(args.Get(0)), args.Error(1)
}

func (m *MockIdentityStore) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status access.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockIdentityStore) CreateSubscription(ctx context.Context, record *access.Subscription) (*access.Subscription, error) {
	args := m.Called(ctx, record)
	return subscriptionArg(args.Get(0)), args.Error(1)
}

// MockSubscriptionWriter implements access.SubscriptionWriter
type MockSubscriptionWriter struct {
	mock.Mock
}

func (m *MockSubscriptionWriter) FindLatestSubscription(ctx context.Context, professionalID uuid.UUID) (*access.Subscription, error) {
	args := m.Called(ctx, professionalID)
	return subscriptionArg(args.Get(0)), args.Error(1)
}

func (m *MockSubscriptionWriter) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status access.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func actorArg(v any) *access.Actor {
	actor, _ := v.(*access.Actor)
	return actor
}

func subscriptionArg(v any) *access.Subscription {
	sub, _ := v.(*access.Subscription)
	return sub
}

// RecordingSink collects activity events for assertions.
type RecordingSink struct {
	mu     sync.Mutex
	events []access.ActivityEvent
}

func (s *RecordingSink) Record(_ context.Context, event access.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *RecordingSink) Events() []access.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]access.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *RecordingSink) Types() []access.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]access.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func trialSubscription(professionalID uuid.UUID, registeredAt time.Time) *access.Subscription {
	sub := access.NewTrialSubscription(professionalID, registeredAt)
	sub.ID = uuid.New()
	return sub
}

func professionalActor(registeredAt time.Time) *access.Actor {
	pro := &access.Professional{
		ID:    uuid.New(),
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}
	return access.NewProfessionalActor(pro, trialSubscription(pro.ID, registeredAt))
}

func adminActor() *access.Actor {
	return access.NewAdminActor(&access.Administrator{
		ID:    uuid.New(),
		Name:  "Root",
		Email: "root@example.com",
	})
}
