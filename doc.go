// Package access is the session/subscription access-control core of a
// role-based practice-management application.
//
// Three pieces carry the weight:
//
//   - SessionManager owns the single process-wide session slot: who
//     the current actor is and the credential they authenticated
//     with. It persists the pair across restarts and revalidates it
//     with the identity store before trusting it again.
//   - EvaluateSubscription (and the persisting Evaluator around it)
//     computes the effective subscription status at an instant,
//     applying lazy trial/active expiry on read rather than on a
//     timer.
//   - Guard composes the two into allow/redirect decisions: absent
//     session to login, unentitled professional to the renewal page
//     regardless of the requested roles, role mismatch to the role's
//     home route.
//
// Exactly two roles exist. Administrators are implicitly always
// entitled; professionals are gated on a trial or active subscription
// originated once, at registration. The identity store is bun-backed;
// the HTTP surface (RouteGuard middleware and the JSON auth
// controller) rides on go-router so it serves fiber without binding
// to it.
package access
