package validator

import (
	"strings"

	"github.com/metisnation/registry/pkg/password"
)

// StrongPassword validates value against every password requirement.
// The message lists the unmet requirements in display order.
func StrongPassword(field, value string) Rule {
	req := password.Evaluate(value)
	missing := req.Missing()
	labels := make([]string, 0, len(missing))
	for _, m := range missing {
		labels = append(labels, strings.ToLower(password.Describe(m)))
	}
	return Rule{
		Check: req.Valid,
		Error: ValidationError{
			Field:          field,
			Message:        "password must contain " + strings.Join(labels, ", "),
			TranslationKey: "validation.password_strength",
			TranslationValues: map[string]any{
				"field":   field,
				"missing": missing,
			},
		},
	}
}
