package access

import (
	"context"
	"fmt"
	"time"
)

// DecisionKind discriminates guard outcomes
type DecisionKind int

const (
	// DecisionAllow lets the request through
	DecisionAllow DecisionKind = iota
	// DecisionRedirect sends the caller to Decision.Target
	DecisionRedirect
)

// Decision is the outcome of an access check. Derived, never stored.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// Allowed reports whether the decision lets the request through.
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

// Allow is the pass-through decision
func Allow() Decision {
	return Decision{Kind: DecisionAllow}
}

// RedirectTo builds a redirect decision
func RedirectTo(target string) Decision {
	return Decision{Kind: DecisionRedirect, Target: target}
}

// GuardRoutes holds the redirect targets the guard can emit. Defaults
// mirror the application's route map.
type GuardRoutes struct {
	Login               string
	SubscriptionExpired string
	ProfessionalHome    string
	AdminHome           string
}

// DefaultGuardRoutes returns the application's standard route map.
func DefaultGuardRoutes() GuardRoutes {
	return GuardRoutes{
		Login:               "/",
		SubscriptionExpired: "/subscription-expired",
		ProfessionalHome:    "/professional",
		AdminHome:           "/admin",
	}
}

// RoleHome maps a role to its home route. The mapping is total over
// the two roles; anything else is a programming error.
func (r GuardRoutes) RoleHome(role Role) string {
	switch role {
	case RoleProfessional:
		return r.ProfessionalHome
	case RoleAdmin:
		return r.AdminHome
	default:
		panic(fmt.Sprintf("access: no home route for role %q", role))
	}
}

// Guard composes session state and subscription evaluation into
// allow/redirect decisions for capability-gated views.
type Guard struct {
	routes    GuardRoutes
	evaluator *Evaluator
	logger    Logger
}

// GuardOption customizes a Guard
type GuardOption func(*Guard)

// WithGuardRoutes overrides the redirect targets
func WithGuardRoutes(routes GuardRoutes) GuardOption {
	return func(g *Guard) {
		g.routes = routes
	}
}

// WithGuardLogger overrides the guard's logger
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard builds a Guard. The evaluator may be nil for purely static
// decisions (Decide); DecideLive requires it.
func NewGuard(evaluator *Evaluator, opts ...GuardOption) *Guard {
	g := &Guard{
		routes:    DefaultGuardRoutes(),
		evaluator: evaluator,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Routes returns the guard's redirect targets.
func (g *Guard) Routes() GuardRoutes {
	return g.routes
}

// Decide is the pure decision function:
//
//  1. no actor: redirect to login.
//  2. professional without effective entitlement at the given instant:
//     redirect to the subscription-expired page, regardless of the
//     requested roles. Administrators skip this check entirely.
//  3. non-empty requested role set excluding the actor's role:
//     redirect to the actor's home route.
//  4. otherwise allow.
//
// The subscription re-evaluation here is in-memory only; persistence
// of lazy expiry belongs to DecideLive or the session manager.
func (g *Guard) Decide(actor *Actor, requested []Role, now time.Time) Decision {
	if actor == nil {
		return RedirectTo(g.routes.Login)
	}

	if actor.IsProfessional() {
		effective, _ := EvaluateSubscription(actor.Subscription, now)
		if !effective.Entitled() {
			return RedirectTo(g.routes.SubscriptionExpired)
		}
	}

	if len(requested) > 0 && !actor.HasRole(requested...) {
		return RedirectTo(g.routes.RoleHome(actor.Role))
	}

	return Allow()
}

// DecideLive behaves like Decide but persists any lazy expiry it
// observes, so the stored record catches up with the decision. Store
// failures degrade to the pure decision: access control still runs on
// the effective status even when the write-back cannot land.
//
// The caller's actor is never written to: the session slot shares that
// pointer across concurrent requests, and writing evaluator results
// back into the slot belongs to the SessionManager. The decision runs
// on a private copy carrying the effective subscription.
func (g *Guard) DecideLive(ctx context.Context, actor *Actor, requested []Role) Decision {
	if actor != nil && actor.IsProfessional() && g.evaluator != nil {
		effective, err := g.evaluator.Evaluate(ctx, actor.Subscription)
		if err != nil {
			g.logger.Error("guard could not persist subscription expiry", "error", err)
		} else if effective != actor.Subscription {
			shadow := *actor
			shadow.Subscription = effective
			actor = &shadow
		}
	}

	return g.Decide(actor, requested, g.now())
}

func (g *Guard) now() time.Time {
	if g.evaluator != nil {
		return g.evaluator.now()
	}
	return time.Now()
}
