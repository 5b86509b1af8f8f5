package access

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// RouteGuard enforces guard decisions in front of capability-gated
// routes. The view router calls it before rendering anything gated and
// honors every redirect unconditionally.
type RouteGuard struct {
	sessions *SessionManager
	guard    *Guard
	Logger   Logger
}

// NewRouteGuard builds the HTTP adapter over a session manager and guard.
func NewRouteGuard(sessions *SessionManager, guard *Guard) *RouteGuard {
	return &RouteGuard{
		sessions: sessions,
		guard:    guard,
		Logger:   defLogger{},
	}
}

// Protected gates a route behind the given role set. An empty set
// means any authenticated, entitled actor. The middleware waits for
// the initial restore to resolve before reading the session, runs the
// live decision (persisting any lazy expiry it observes), and either
// stashes the actor for downstream handlers or redirects.
func (g *RouteGuard) Protected(roles ...Role) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			select {
			case <-g.sessions.Resolved():
			case <-ctx.Context().Done():
				return ctx.Context().Err()
			}

			actor, err := g.sessions.Current()
			if err != nil {
				return g.redirect(ctx, g.guard.Routes().Login)
			}

			// Keep the slot fresh through the session manager, which
			// owns writes to the shared actor. A store failure here
			// degrades to deciding on the actor as-is.
			if actor.IsProfessional() {
				if refreshed, rerr := g.sessions.RefreshSubscription(ctx.Context()); rerr == nil {
					actor = refreshed
				} else {
					g.Logger.Error("could not refresh subscription for guard check", "error", rerr)
				}
			}

			decision := g.guard.DecideLive(ctx.Context(), actor, roles)
			if !decision.Allowed() {
				g.Logger.Info("access denied, redirecting",
					"path", ctx.OriginalURL(),
					"target", decision.Target,
				)
				return g.redirect(ctx, decision.Target)
			}

			ctx.Locals(actorLocalsKey, actor)
			ctx.SetContext(WithActorContext(ctx.Context(), actor))

			return next(ctx)
		}
	}
}

func (g *RouteGuard) redirect(ctx router.Context, target string) error {
	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(target, statusCode)
}
