package access

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Store is the bun-backed IdentityStore. It composes the repositories
// with password verification and the credential revocation list.
type Store struct {
	repo     RepositoryManager
	tokens   *TokenService
	register *RegisterProfessionalHandler
	logger   Logger
	now      func() time.Time
}

var _ IdentityStore = (*Store)(nil)
var _ SubscriptionWriter = (*Store)(nil)

// StoreOption customizes a Store
type StoreOption func(*Store)

// WithStoreLogger overrides the store's logger
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock injects a custom clock (useful for tests)
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
			s.register = NewRegisterProfessionalHandler(s.repo, clock)
		}
	}
}

// NewStore builds the IdentityStore over a repository manager and the
// token service that mints session credentials.
func NewStore(repo RepositoryManager, tokens *TokenService, opts ...StoreOption) *Store {
	s := &Store{
		repo:     repo,
		tokens:   tokens,
		register: NewRegisterProfessionalHandler(repo, nil),
		logger:   defLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Authenticate checks the pair against administrators first, then
// professionals; the admin record wins should both kinds ever share an
// email. Lookup misses and password mismatches collapse into the same
// ErrInvalidCredentials so callers cannot probe which emails exist.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Actor, error) {
	if admin, err := s.repo.Administrators().GetByEmail(ctx, email); err == nil && admin != nil {
		if err := ComparePasswordAndHash(password, admin.PasswordHash); err != nil {
			return nil, ErrInvalidCredentials
		}
		return NewAdminActor(admin), nil
	} else if err != nil && !repository.IsRecordNotFound(err) {
		return nil, storeFailure(err)
	}

	pro, err := s.repo.Professionals().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeFailure(err)
	}

	if err := ComparePasswordAndHash(password, pro.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	sub, err := s.FindLatestSubscription(ctx, pro.ID)
	if err != nil {
		return nil, err
	}

	return NewProfessionalActor(pro, sub), nil
}

// CreateIdentity registers a professional and its trial subscription.
func (s *Store) CreateIdentity(ctx context.Context, profile RegisterProfile) (*Actor, error) {
	return s.register.Register(ctx, RegisterProfessionalMessage{Profile: profile})
}

// Invalidate adds the credential's token ID to the revocation list.
// An unparseable credential has nothing worth revoking.
func (s *Store) Invalidate(ctx context.Context, credential string) error {
	claims, err := s.tokens.VerifyClaims(credential)
	if err != nil {
		return nil
	}

	revokedAt := s.now()
	record := &RevokedCredential{TokenID: claims.ID, RevokedAt: &revokedAt}
	if _, err := s.repo.DB().NewInsert().Model(record).Exec(ctx); err != nil {
		return storeFailure(err)
	}
	return nil
}

// ResolveCredential revalidates a persisted credential: signature and
// expiry via the token service, revocation list, then a fresh actor
// fetch so a stale or tampered snapshot never grants access.
func (s *Store) ResolveCredential(ctx context.Context, credential string) (*Actor, error) {
	claims, err := s.tokens.VerifyClaims(credential)
	if err != nil {
		return nil, ErrStaleSession
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if revoked {
		return nil, ErrStaleSession
	}

	id, err := uuid.Parse(claims.UID)
	if err != nil {
		return nil, ErrStaleSession
	}

	switch claims.UserRole {
	case RoleAdmin:
		admin, err := s.FindAdminByID(ctx, id)
		if err != nil || admin == nil {
			return nil, ErrStaleSession
		}
		return NewAdminActor(admin), nil

	case RoleProfessional:
		pro, err := s.FindProfessionalByID(ctx, id)
		if err != nil || pro == nil {
			return nil, ErrStaleSession
		}
		sub, err := s.FindLatestSubscription(ctx, pro.ID)
		if err != nil {
			return nil, err
		}
		return NewProfessionalActor(pro, sub), nil

	default:
		return nil, ErrStaleSession
	}
}

func (s *Store) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return true, nil
	}
	return s.repo.DB().NewSelect().
		Model((*RevokedCredential)(nil)).
		Where("token_id = ?", tokenID).
		Exists(ctx)
}

// FindAdminByID looks up an administrator, nil when absent.
func (s *Store) FindAdminByID(ctx context.Context, id uuid.UUID) (*Administrator, error) {
	admin, err := s.repo.Administrators().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return admin, nil
}

// FindProfessionalByID looks up a professional, nil when absent.
func (s *Store) FindProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	pro, err := s.repo.Professionals().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return pro, nil
}

// FindLatestSubscription returns the current record for the
// professional, nil when none exists.
func (s *Store) FindLatestSubscription(ctx context.Context, professionalID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.Subscriptions().GetLatestByProfessional(ctx, professionalID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return sub, nil
}

// UpdateSubscriptionStatus persists a status change.
func (s *Store) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	if err := s.repo.Subscriptions().UpdateStatus(ctx, id, status); err != nil {
		return storeFailure(err)
	}
	return nil
}

// CreateSubscription inserts a record; used by renewal tooling, never
// by registration, which goes through its own transaction.
func (s *Store) CreateSubscription(ctx context.Context, record *Subscription) (*Subscription, error) {
	created, err := s.repo.Subscriptions().Create(ctx, record)
	if err != nil {
		return nil, storeFailure(err)
	}
	return created, nil
}

// RenewSubscription opens the next billing period for a professional;
// the only path out of expired/cancelled.
func (s *Store) RenewSubscription(ctx context.Context, professionalID uuid.UUID, periodEnd time.Time) (*Subscription, error) {
	if periodEnd.Before(s.now()) {
		return nil, errors.New("period end must be in the future", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	sub, err := s.repo.Subscriptions().Renew(ctx, professionalID, s.now().UTC(), periodEnd)
	if err != nil {
		return nil, storeFailure(err)
	}
	return sub, nil
}
