package access

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse national phone
// numbers in registration profiles.
var DefaultPhoneRegion = "BR"

// RegisterProfile is the payload collected at professional sign up.
type RegisterProfile struct {
	Name               string `form:"name" json:"name"`
	Email              string `form:"email" json:"email"`
	Password           string `form:"password" json:"password"`
	Phone              string `form:"phone" json:"phone"`
	City               string `form:"city" json:"city"`
	State              string `form:"state" json:"state"`
	Specialty          string `form:"specialty" json:"specialty"`
	RegistrationNumber string `form:"registration_number" json:"registration_number"`
}

// Validate will run validation rules
func (r RegisterProfile) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Phone, validation.Required, validation.By(validPhoneNumber)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.State, validation.Required, validation.Length(2, 2)),
		validation.Field(&r.Specialty, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.RegistrationNumber, validation.Required, validation.Length(1, 50)),
	)
}

func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return err
	}
	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}
	return nil
}
