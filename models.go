package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the actor's role
type Role = string

const (
	// RoleAdmin is the back-office administrator role
	RoleAdmin Role = "admin"
	// RoleProfessional is the subscription-gated practitioner role
	RoleProfessional Role = "professional"
)

// ParseRole validates a raw role string
func ParseRole(raw string) (Role, bool) {
	switch raw {
	case RoleAdmin, RoleProfessional:
		return raw, true
	default:
		return "", false
	}
}

// SubscriptionStatus is the subscription lifecycle state
type SubscriptionStatus = string

const (
	// SubscriptionTrial grants entitlement until TrialEndsAt
	SubscriptionTrial SubscriptionStatus = "trial"
	// SubscriptionActive grants entitlement until CurrentPeriodEnd
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionExpired is terminal for automatic transitions
	SubscriptionExpired SubscriptionStatus = "expired"
	// SubscriptionCancelled is terminal for automatic transitions
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// TrialPeriod is how long a freshly registered professional keeps
// entitlement before the first payment.
const TrialPeriod = 3 * 24 * time.Hour

// Administrator is the back-office identity model
type Administrator struct {
	bun.BaseModel `bun:"table:administrators,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Professional is the practitioner identity model, carrying the
// registration profile collected at sign up.
type Professional struct {
	bun.BaseModel      `bun:"table:professionals,alias:pro"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name               string     `bun:"name,notnull" json:"name,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	City               string     `bun:"city" json:"city,omitempty"`
	State              string     `bun:"state" json:"state,omitempty"`
	Specialty          string     `bun:"specialty" json:"specialty,omitempty"`
	RegistrationNumber string     `bun:"registration_number" json:"registration_number,omitempty"`
	SignatureURL       string     `bun:"signature_url" json:"signature_url,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Subscription is the entitlement record for a professional. The store
// only ever consults the most recently created record per professional.
type Subscription struct {
	bun.BaseModel      `bun:"table:subscriptions,alias:sub"`
	ID                 uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProfessionalID     uuid.UUID          `bun:"professional_id,notnull,type:uuid" json:"professional_id,omitempty"`
	Professional       *Professional      `bun:"rel:belongs-to,join:professional_id=id" json:"-"`
	Status             SubscriptionStatus `bun:"status,notnull" json:"status,omitempty"`
	TrialEndsAt        time.Time          `bun:"trial_ends_at,notnull" json:"trial_ends_at,omitempty"`
	CurrentPeriodStart time.Time          `bun:"current_period_start,notnull" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   time.Time          `bun:"current_period_end,notnull" json:"current_period_end,omitempty"`
	CancelledAt        *time.Time         `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`
	CreatedAt          *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// RevokedCredential records a credential revoked by logout, keyed by
// the credential's token ID. Restore refuses revoked credentials even
// when their signature still verifies.
type RevokedCredential struct {
	bun.BaseModel `bun:"table:revoked_credentials,alias:rvk"`
	TokenID       string     `bun:"token_id,pk" json:"token_id"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero,default:current_timestamp" json:"revoked_at,omitempty"`
}

// Entitled reports whether the persisted status grants access. It does
// not apply lazy expiry; use EvaluateSubscription for that.
func (s *Subscription) Entitled() bool {
	if s == nil {
		return false
	}
	return s.Status == SubscriptionTrial || s.Status == SubscriptionActive
}

// NewTrialSubscription builds the single trial record created at
// registration: the trial ends now + TrialPeriod and the first billing
// period spans the trial window.
func NewTrialSubscription(professionalID uuid.UUID, now time.Time) *Subscription {
	trialEndsAt := now.Add(TrialPeriod)
	createdAt := now
	return &Subscription{
		ProfessionalID:     professionalID,
		Status:             SubscriptionTrial,
		TrialEndsAt:        trialEndsAt,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEndsAt,
		CreatedAt:          &createdAt,
	}
}
