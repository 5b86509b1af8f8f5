package access

import (
	"github.com/google/uuid"
)

// Actor is the authenticated identity driving the current session. The
// Role tag discriminates the two kinds: administrators carry only
// identity fields, professionals additionally carry their profile and
// their current subscription record (possibly nil when the store has
// no record for them).
//
// Actors are serialized into the local session snapshot, so the struct
// stays plain data.
type Actor struct {
	ID           uuid.UUID     `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name,omitempty"`
	Role         Role          `json:"role"`
	Professional *Professional `json:"professional,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// NewAdminActor builds the actor for an administrator record.
func NewAdminActor(admin *Administrator) *Actor {
	if admin == nil {
		return nil
	}
	return &Actor{
		ID:    admin.ID,
		Email: admin.Email,
		Name:  admin.Name,
		Role:  RoleAdmin,
	}
}

// NewProfessionalActor builds the actor for a professional record and
// its current subscription, which may be nil.
func NewProfessionalActor(pro *Professional, sub *Subscription) *Actor {
	if pro == nil {
		return nil
	}
	return &Actor{
		ID:           pro.ID,
		Email:        pro.Email,
		Name:         pro.Name,
		Role:         RoleProfessional,
		Professional: pro,
		Subscription: sub,
	}
}

// IsAdmin reports whether the actor is an administrator.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// IsProfessional reports whether the actor is a professional.
func (a *Actor) IsProfessional() bool {
	return a != nil && a.Role == RoleProfessional
}

// HasRole reports whether the actor holds any of the given roles. An
// empty set means unrestricted.
func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// HasActiveSubscription reports whether the actor is currently
// entitled. Administrators are implicitly always entitled; a
// professional needs a subscription in trial or active status.
func (a *Actor) HasActiveSubscription() bool {
	if a == nil {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	return a.Subscription.Entitled()
}

// IsTrialActive reports whether the actor is riding the trial window.
func (a *Actor) IsTrialActive() bool {
	return a != nil && a.Subscription != nil && a.Subscription.Status == SubscriptionTrial
}
