package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterProfessionalMessage carries a registration request.
type RegisterProfessionalMessage struct {
	Profile RegisterProfile
}

func (e RegisterProfessionalMessage) Type() string { return "professional.register" }

// RegisterProfessionalHandler creates the professional record and its
// single trial subscription in one transaction. Registration is the
// only code path that originates a subscription: if the subscription
// insert fails the whole transaction fails, so no credential ever
// exists without its trial record.
type RegisterProfessionalHandler struct {
	repo RepositoryManager
	now  func() time.Time
}

// NewRegisterProfessionalHandler builds the handler. The clock is
// injectable for tests.
func NewRegisterProfessionalHandler(repo RepositoryManager, clock func() time.Time) *RegisterProfessionalHandler {
	if clock == nil {
		clock = time.Now
	}
	return &RegisterProfessionalHandler{repo: repo, now: clock}
}

// Execute satisfies the command handler shape.
func (h *RegisterProfessionalHandler) Execute(ctx context.Context, event RegisterProfessionalMessage) error {
	_, err := h.Register(ctx, event)
	return err
}

// Register runs the transaction and returns the resulting actor.
func (h *RegisterProfessionalHandler) Register(ctx context.Context, event RegisterProfessionalMessage) (*Actor, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration",
		)
	default:
	}

	profile := event.Profile
	if err := profile.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, ErrValidation.Message).
			WithTextCode(TextCodeInvalidProfile).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	pro := &Professional{}
	var sub *Subscription

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Professionals().GetByEmailTx(ctx, tx, profile.Email); err == nil && existing != nil {
			return ErrDuplicateEmail
		}

		hash, err := HashPassword(profile.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		pro.Name = profile.Name
		pro.Email = profile.Email
		pro.Phone = profile.Phone
		pro.City = profile.City
		pro.State = profile.State
		pro.Specialty = profile.Specialty
		pro.RegistrationNumber = profile.RegistrationNumber
		pro.PasswordHash = hash
		if id, err := hashid.NewUUID(profile.Email); err == nil {
			pro.ID = id
		}

		if pro, err = h.repo.Professionals().RegisterTx(ctx, tx, pro); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, ErrDuplicateEmail.Message).
				WithTextCode(TextCodeDuplicateEmail).
				WithCode(goerrors.CodeConflict)
		}

		record := NewTrialSubscription(pro.ID, h.now().UTC())
		if sub, err = h.repo.Subscriptions().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create trial subscription")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "registration transaction failed")
	}

	return NewProfessionalActor(pro, sub), nil
}
