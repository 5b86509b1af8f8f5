package access

import (
	"context"
	"sync"
	"time"
)

// SessionManager owns the single process-wide session slot: the
// current actor and the credential it authenticated with. All mutating
// operations carry a monotonic sequence token, so a completion that
// was superseded by a later login or logout never writes the slot.
type SessionManager struct {
	store     IdentityStore
	minter    CredentialMinter
	snapshots SnapshotStore
	evaluator *Evaluator
	logger    Logger
	sink      ActivitySink
	now       func() time.Time

	mu         sync.Mutex
	actor      *Actor
	credential string
	seq        uint64

	restoreOnce sync.Once
	resolved    chan struct{}
}

// SessionOption customizes a SessionManager
type SessionOption func(*SessionManager)

// WithSessionLogger overrides the manager's logger
func WithSessionLogger(logger Logger) SessionOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSessionActivitySink attaches an audit sink for session events
func WithSessionActivitySink(sink ActivitySink) SessionOption {
	return func(m *SessionManager) {
		m.sink = normalizeActivitySink(sink)
	}
}

// NewSessionManager wires the session over its collaborators.
func NewSessionManager(store IdentityStore, minter CredentialMinter, snapshots SnapshotStore, evaluator *Evaluator, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store:     store,
		minter:    minter,
		snapshots: snapshots,
		evaluator: evaluator,
		logger:    defLogger{},
		sink:      noopActivitySink{},
		now:       time.Now,
		resolved:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Resolved closes once the initial restore finished. Callers gate
// protected rendering on this signal instead of racing the slot.
func (m *SessionManager) Resolved() <-chan struct{} {
	return m.resolved
}

// IsResolved reports whether the initial restore completed.
func (m *SessionManager) IsResolved() bool {
	select {
	case <-m.resolved:
		return true
	default:
		return false
	}
}

// Current returns the actor in the slot, nil when logged out. It
// fails with ErrSessionUnresolved before the initial restore finished.
func (m *SessionManager) Current() (*Actor, error) {
	if !m.IsResolved() {
		return nil, ErrSessionUnresolved
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actor, nil
}

// Credential returns the bearer credential of the current session.
func (m *SessionManager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}

// Restore loads the persisted snapshot at process start. The snapshot
// is provisional: the credential is revalidated against the identity
// store before the actor is trusted, and any failure clears local
// state and resolves to logged-out. Only the first call does work;
// later calls return the slot as-is.
func (m *SessionManager) Restore(ctx context.Context) (*Actor, error) {
	m.restoreOnce.Do(func() {
		defer close(m.resolved)
		m.restore(ctx)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actor, nil
}

func (m *SessionManager) restore(ctx context.Context) {
	snap, err := m.snapshots.Read()
	if err != nil {
		m.logger.Debug("discarding unreadable session snapshot", "error", err)
		m.clearLocal()
		return
	}

	if snap == nil {
		return
	}

	actor, err := m.store.ResolveCredential(ctx, snap.Credential)
	if err != nil {
		// StaleSession resolves silently: cleared state, logged out.
		m.logger.Info("persisted session failed revalidation, clearing", "error", err)
		m.clearLocal()
		return
	}

	actor, err = m.effectiveActor(ctx, actor)
	if err != nil {
		m.logger.Error("restore could not evaluate subscription", "error", err)
		m.clearLocal()
		return
	}

	m.commit(m.begin(), actor, snap.Credential)

	m.record(ctx, ActivityEvent{
		EventType: ActivityEventSessionRestored,
		UserID:    actor.ID.String(),
		Role:      actor.Role,
	})
}

// Login authenticates the pair against the identity store, resolves
// the professional's effective subscription, mints a credential, and
// persists the new session. The actor is returned so the caller can
// route by role. A rejected pair surfaces ErrInvalidCredentials
// verbatim.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Actor, error) {
	token := m.begin()

	actor, err := m.store.Authenticate(ctx, email, password)
	if err != nil {
		m.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": email},
		})
		return nil, err
	}

	actor, err = m.effectiveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	credential, err := m.minter.Mint(actor)
	if err != nil {
		return nil, err
	}

	if m.commit(token, actor, credential) {
		m.persist(actor, credential)
	}

	m.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    actor.ID.String(),
		Role:      actor.Role,
	})

	return actor, nil
}

// Register creates a professional identity together with its single
// trial subscription and opens a session for it. The store guarantees
// the two records are created atomically; a subscription failure fails
// the whole registration.
func (m *SessionManager) Register(ctx context.Context, profile RegisterProfile) (*Actor, error) {
	token := m.begin()

	actor, err := m.store.CreateIdentity(ctx, profile)
	if err != nil {
		return nil, err
	}

	credential, err := m.minter.Mint(actor)
	if err != nil {
		return nil, err
	}

	if m.commit(token, actor, credential) {
		m.persist(actor, credential)
	}

	m.record(ctx, ActivityEvent{
		EventType: ActivityEventRegistration,
		UserID:    actor.ID.String(),
		Role:      actor.Role,
	})

	return actor, nil
}

// Logout clears the session. The local half is unconditional and
// never fails: slot and snapshot are gone even when the remote
// invalidation errors, so an actor can never appear logged in after an
// explicit logout.
func (m *SessionManager) Logout(ctx context.Context) {
	m.begin()

	m.mu.Lock()
	credential := m.credential
	actor := m.actor
	m.actor = nil
	m.credential = ""
	m.mu.Unlock()

	if actor != nil {
		m.record(ctx, ActivityEvent{
			EventType: ActivityEventLogout,
			UserID:    actor.ID.String(),
			Role:      actor.Role,
		})
	}

	if err := m.snapshots.Clear(); err != nil {
		m.logger.Error("failed to clear session snapshot", "error", err)
	}

	if credential == "" {
		return
	}

	if err := m.store.Invalidate(ctx, credential); err != nil {
		m.logger.Error("remote credential invalidation failed", "error", err)
	}
}

// RefreshSubscription re-resolves the professional's current
// subscription and updates the slot and snapshot in place. Admin
// sessions are untouched.
func (m *SessionManager) RefreshSubscription(ctx context.Context) (*Actor, error) {
	m.mu.Lock()
	actor := m.actor
	credential := m.credential
	token := m.seq
	m.mu.Unlock()

	if actor == nil || !actor.IsProfessional() {
		return actor, nil
	}

	sub, err := m.evaluator.Resolve(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	refreshed := *actor
	refreshed.Subscription = sub

	if m.commit(token, &refreshed, credential) {
		m.persist(&refreshed, credential)
	}

	return &refreshed, nil
}

// effectiveActor applies lazy subscription expiry to a freshly loaded
// professional actor. Admins pass through.
func (m *SessionManager) effectiveActor(ctx context.Context, actor *Actor) (*Actor, error) {
	if actor == nil || !actor.IsProfessional() || m.evaluator == nil {
		return actor, nil
	}

	sub, err := m.evaluator.Evaluate(ctx, actor.Subscription)
	if err != nil {
		return nil, err
	}

	actor.Subscription = sub
	return actor, nil
}

// clearLocal wipes the slot and the persisted snapshot. Failures to
// clear the snapshot are logged, never surfaced.
func (m *SessionManager) clearLocal() {
	m.mu.Lock()
	m.actor = nil
	m.credential = ""
	m.mu.Unlock()

	if err := m.snapshots.Clear(); err != nil {
		m.logger.Error("failed to clear session snapshot", "error", err)
	}
}

// begin allocates the sequence token for a session-mutating operation.
func (m *SessionManager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

// commit writes the slot unless a later operation superseded this one.
func (m *SessionManager) commit(token uint64, actor *Actor, credential string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token != m.seq {
		m.logger.Debug("stale session write dropped", "token", token, "seq", m.seq)
		return false
	}

	m.actor = actor
	m.credential = credential
	return true
}

func (m *SessionManager) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}
	if err := m.sink.Record(ctx, event); err != nil {
		m.logger.Error("activity sink rejected session event", "event", string(event.EventType), "error", err)
	}
}

func (m *SessionManager) persist(actor *Actor, credential string) {
	if err := m.snapshots.Write(&Snapshot{Credential: credential, Actor: actor}); err != nil {
		m.logger.Error("failed to persist session snapshot", "error", err)
	}
}
