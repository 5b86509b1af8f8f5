package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Logger is the minimal logging surface this package needs
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityStore is the boundary with the identity/record backend. The
// bun-backed implementation lives in store.go; tests substitute fakes.
type IdentityStore interface {
	// Authenticate verifies an email/password pair against admins
	// first, then professionals, and returns the matching actor.
	// A rejected pair yields ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*Actor, error)

	// CreateIdentity registers a professional together with its single
	// trial subscription in one transaction.
	CreateIdentity(ctx context.Context, profile RegisterProfile) (*Actor, error)

	// Invalidate revokes a previously issued credential.
	Invalidate(ctx context.Context, credential string) error

	// ResolveCredential revalidates a persisted credential and
	// re-fetches the actor it was minted for. Any failure maps to
	// ErrStaleSession so the caller can clear local state.
	ResolveCredential(ctx context.Context, credential string) (*Actor, error)

	FindAdminByID(ctx context.Context, id uuid.UUID) (*Administrator, error)
	FindProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)

	// FindLatestSubscription returns the most recently created
	// subscription for the professional, or nil when none exists.
	FindLatestSubscription(ctx context.Context, professionalID uuid.UUID) (*Subscription, error)

	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error
	CreateSubscription(ctx context.Context, record *Subscription) (*Subscription, error)
}

// CredentialMinter issues and verifies the opaque bearer credential
// carried by a session.
type CredentialMinter interface {
	Mint(actor *Actor) (string, error)
	Verify(credential string) (uuid.UUID, Role, error)
}

// SnapshotStore persists the local {credential, actor} pair across
// process restarts. Implementations must expose each read/write as a
// single atomic operation with no partial-write visibility.
type SnapshotStore interface {
	Read() (*Snapshot, error)
	Write(snap *Snapshot) error
	Clear() error
}

// Snapshot is the persisted local session state
type Snapshot struct {
	Credential string `json:"credential"`
	Actor      *Actor `json:"actor"`
}

// Config holds the knobs for the access core
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetLoginRoute() string
	GetSubscriptionExpiredRoute() string
	GetProfessionalHomeRoute() string
	GetAdminHomeRoute() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCESS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCESS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCESS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
