package access

import (
	"github.com/uptrace/bun"
)

// Access bundles the wired core: one repository manager, one identity
// store, one session slot, one guard. Applications keep a single
// instance per process.
type Access struct {
	Repo      RepositoryManager
	Store     *Store
	Tokens    *TokenService
	Evaluator *Evaluator
	Guard     *Guard
	Sessions  *SessionManager
	Routes    *RouteGuard
}

// Option customizes the wiring
type Option func(*options)

type options struct {
	logger    Logger
	snapshots SnapshotStore
	sink      ActivitySink
}

// WithLogger sets the logger used by every component
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSnapshotStore overrides the local session persistence. The
// default is an in-memory store; desktop-style installations pass a
// FileSnapshotStore keyed per installation.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(o *options) {
		if store != nil {
			o.snapshots = store
		}
	}
}

// WithActivitySink attaches an audit sink to the session manager and
// the subscription evaluator.
func WithActivitySink(sink ActivitySink) Option {
	return func(o *options) {
		o.sink = normalizeActivitySink(sink)
	}
}

// New wires the access core over a bun DB handle.
func New(cfg Config, db *bun.DB, opts ...Option) *Access {
	o := &options{
		logger:    defLogger{},
		snapshots: &MemorySnapshotStore{},
		sink:      noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	repo := NewRepositoryManager(db)
	tokens := NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration(), cfg.GetIssuer(), o.logger)
	store := NewStore(repo, tokens, WithStoreLogger(o.logger))
	evaluator := NewEvaluator(store, WithEvaluatorLogger(o.logger), WithEvaluatorActivitySink(o.sink))

	guard := NewGuard(evaluator,
		WithGuardLogger(o.logger),
		WithGuardRoutes(GuardRoutes{
			Login:               cfg.GetLoginRoute(),
			SubscriptionExpired: cfg.GetSubscriptionExpiredRoute(),
			ProfessionalHome:    cfg.GetProfessionalHomeRoute(),
			AdminHome:           cfg.GetAdminHomeRoute(),
		}),
	)

	sessions := NewSessionManager(store, tokens, o.snapshots, evaluator,
		WithSessionLogger(o.logger),
		WithSessionActivitySink(o.sink),
	)

	return &Access{
		Repo:      repo,
		Store:     store,
		Tokens:    tokens,
		Evaluator: evaluator,
		Guard:     guard,
		Sessions:  sessions,
		Routes:    NewRouteGuard(sessions, guard),
	}
}

// SimpleConfig is a plain-struct Config for callers that do not bring
// their own configuration layer.
type SimpleConfig struct {
	SigningKey               string
	TokenExpiration          int
	Issuer                   string
	LoginRoute               string
	SubscriptionExpiredRoute string
	ProfessionalHomeRoute    string
	AdminHomeRoute           string
}

var _ Config = (*SimpleConfig)(nil)

// DefaultConfig returns a config with the application's standard
// route map. The signing key must still be provided by the caller.
func DefaultConfig(signingKey string) *SimpleConfig {
	routes := DefaultGuardRoutes()
	return &SimpleConfig{
		SigningKey:               signingKey,
		TokenExpiration:          24,
		Issuer:                   "lumehealth",
		LoginRoute:               routes.Login,
		SubscriptionExpiredRoute: routes.SubscriptionExpired,
		ProfessionalHomeRoute:    routes.ProfessionalHome,
		AdminHomeRoute:           routes.AdminHome,
	}
}

func (c *SimpleConfig) GetSigningKey() string               { return c.SigningKey }
func (c *SimpleConfig) GetTokenExpiration() int             { return c.TokenExpiration }
func (c *SimpleConfig) GetIssuer() string                   { return c.Issuer }
func (c *SimpleConfig) GetLoginRoute() string               { return c.LoginRoute }
func (c *SimpleConfig) GetSubscriptionExpiredRoute() string { return c.SubscriptionExpiredRoute }
func (c *SimpleConfig) GetProfessionalHomeRoute() string    { return c.ProfessionalHomeRoute }
func (c *SimpleConfig) GetAdminHomeRoute() string           { return c.AdminHomeRoute }
