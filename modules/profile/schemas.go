package profile

import (
	"time"

	"github.com/metisnation/registry/pkg/sanitizer"
	"github.com/metisnation/registry/pkg/validator"
	"github.com/metisnation/registry/svc/registry"
)

const maxAgeYears = 130

// ProfileInput is the profile form.
type ProfileInput struct {
	FirstName    string `form:"first_name" json:"first_name"`
	LastName     string `form:"last_name" json:"last_name"`
	BirthDate    string `form:"birth_date" json:"birth_date"`
	GenderTypeID int32  `form:"gender_type_id" json:"gender_type_id"`
	Phone        string `form:"phone" json:"phone"`
}

// CodeInput is an authenticator code.
type CodeInput struct {
	Code string `form:"code"`
}

// ValidateProfile normalizes the form and converts it to a registry update.
func ValidateProfile(in ProfileInput) (ProfileInput, registry.ProfileUpdate, error) {
	in.FirstName = sanitizer.NormalizeName(in.FirstName)
	in.LastName = sanitizer.NormalizeName(in.LastName)
	in.BirthDate = sanitizer.Trim(in.BirthDate)
	in.Phone = sanitizer.NormalizePhone(in.Phone)

	rules := []validator.Rule{
		validator.Required("first_name", in.FirstName).WithMessage("First name is required"),
		validator.MaxLen("first_name", in.FirstName, 100).WithMessage("First name must be at most 100 characters"),
		validator.Required("last_name", in.LastName).WithMessage("Last name is required"),
		validator.MaxLen("last_name", in.LastName, 100).WithMessage("Last name must be at most 100 characters"),
		validator.Required("birth_date", in.BirthDate).WithMessage("Date of birth is required"),
		validator.ValidDate("birth_date", in.BirthDate, validator.DateLayout).WithMessage("Please enter a valid date"),
		validator.Optional(in.Phone, validator.ValidPhone("phone", in.Phone).WithMessage("Please enter a valid phone number")),
	}
	birth, perr := time.Parse(validator.DateLayout, in.BirthDate)
	if perr == nil {
		rules = append(rules,
			validator.PastDate("birth_date", birth).WithMessage("Date of birth must be in the past"),
			validator.MaxAge("birth_date", birth, maxAgeYears).WithMessage("Please enter a valid date of birth"),
		)
	}
	if err := validator.Apply(rules...); err != nil {
		return in, registry.ProfileUpdate{}, err
	}

	return in, registry.ProfileUpdate{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		BirthDate:    birth,
		GenderTypeID: in.GenderTypeID,
		Phone:        in.Phone,
	}, nil
}

// ValidateCode strips separators and checks for six digits.
func ValidateCode(in CodeInput) (CodeInput, error) {
	in.Code = sanitizer.NormalizeCode(in.Code)
	return in, validator.Apply(validator.ValidOTP("code", in.Code, 6).WithMessage("Please enter the 6-digit code"))
}
