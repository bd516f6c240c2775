package validator

import (
	"fmt"
	"time"
)

// DateLayout is the layout of HTML date inputs.
const DateLayout = "2006-01-02"

// ValidDate validates that value parses with layout.
func ValidDate(field, value, layout string) Rule {
	return Rule{
		Check: func() bool {
			_, err := time.Parse(layout, value)
			return err == nil
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid date",
			TranslationKey: "validation.date",
			TranslationValues: map[string]any{
				"field":  field,
				"layout": layout,
			},
		},
	}
}

func PastDate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.Before(time.Now())
		},
		Error: ValidationError{
			Field:          field,
			Message:        "date must be in the past",
			TranslationKey: "validation.date_past",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

func MaxAge(field string, birthdate time.Time, maxAge int) Rule {
	return Rule{
		Check: func() bool {
			return age(birthdate, time.Now()) <= maxAge
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("maximum age of %d years exceeded", maxAge),
			TranslationKey: "validation.max_age",
			TranslationValues: map[string]any{
				"field":   field,
				"max_age": maxAge,
			},
		},
	}
}

func age(birthdate, now time.Time) int {
	years := now.Year() - birthdate.Year()
	// Adjust if birthday hasn't occurred this year
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		years--
	}
	return years
}
