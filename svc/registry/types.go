package registry

import (
	"time"

	"github.com/google/uuid"
)

// NewUser is a freshly signed-up account.
type NewUser struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	BirthDate time.Time
}

// Profile is a user joined with their person record.
type Profile struct {
	UserID         uuid.UUID `json:"user_id"`
	PersonID       uuid.UUID `json:"person_id"`
	SubjectID      string    `json:"subject_id"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"email_verified"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	BirthDate      time.Time `json:"birth_date"`
	GenderTypeID   int32     `json:"gender_type_id,omitempty"`
	GenderTypeName string    `json:"gender_type_name,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileUpdate holds the editable person fields. Zero GenderTypeID and
// empty Phone clear the stored values.
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	BirthDate    time.Time
	GenderTypeID int32
	Phone        string
}

// GenderType is a lookup row.
type GenderType struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}
