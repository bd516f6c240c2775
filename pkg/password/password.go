package password

import (
	"math"
	"regexp"
)

// MinLength is the minimum number of bytes a password must contain.
const MinLength = 8

// SpecialChars is the fixed punctuation class accepted as a special character.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Requirement names used by Missing and by form views.
const (
	RequirementMinLength    = "min_length"
	RequirementLowercase    = "lowercase"
	RequirementUppercase    = "uppercase"
	RequirementNumbers      = "numbers"
	RequirementSpecialChars = "special_chars"
)

// Requirements holds the outcome of each password rule.
type Requirements struct {
	MinLength    bool `json:"minLength"`
	Lowercase    bool `json:"lowercase"`
	Uppercase    bool `json:"uppercase"`
	Numbers      bool `json:"numbers"`
	SpecialChars bool `json:"specialChars"`
}

// Evaluate checks value against every rule. An empty value satisfies none.
func Evaluate(value string) Requirements {
	return Requirements{
		MinLength:    len(value) >= MinLength,
		Lowercase:    lowercaseRegex.MatchString(value),
		Uppercase:    uppercaseRegex.MatchString(value),
		Numbers:      digitRegex.MatchString(value),
		SpecialChars: specialRegex.MatchString(value),
	}
}

// Satisfied returns the number of rules that passed.
func (r Requirements) Satisfied() int {
	n := 0
	for _, ok := range r.flags() {
		if ok {
			n++
		}
	}
	return n
}

// Strength is the share of satisfied rules scaled to 0..100.
func (r Requirements) Strength() int {
	return int(math.Round(100 * float64(r.Satisfied()) / float64(len(r.flags()))))
}

// Valid reports whether every rule passed.
func (r Requirements) Valid() bool {
	return r.Satisfied() == len(r.flags())
}

// Missing returns the names of failed rules in display order.
func (r Requirements) Missing() []string {
	var missing []string
	names := [...]string{
		RequirementMinLength,
		RequirementLowercase,
		RequirementUppercase,
		RequirementNumbers,
		RequirementSpecialChars,
	}
	for i, ok := range r.flags() {
		if !ok {
			missing = append(missing, names[i])
		}
	}
	return missing
}

func (r Requirements) flags() [5]bool {
	return [5]bool{r.MinLength, r.Lowercase, r.Uppercase, r.Numbers, r.SpecialChars}
}

// Describe returns the user-facing label of a requirement name.
func Describe(requirement string) string {
	switch requirement {
	case RequirementMinLength:
		return "At least 8 characters"
	case RequirementLowercase:
		return "One lowercase letter"
	case RequirementUppercase:
		return "One uppercase letter"
	case RequirementNumbers:
		return "One number"
	case RequirementSpecialChars:
		return "One special character (" + SpecialChars + ")"
	default:
		return requirement
	}
}
