package validator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/metisnation/registry/pkg/validator"
)

func passes(r validator.Rule) bool { return validator.Apply(r) == nil }

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"user@example.com", "first.last+tag@sub.example.ca"}
	invalid := []string{"", " ", "user", "user@", "@example.com", "user@example", "user@.example.com",
		"user@example..com", "Jane <jane@example.com>"}

	for _, v := range valid {
		assert.True(t, passes(validator.ValidEmail("email", v)), v)
	}
	for _, v := range invalid {
		assert.False(t, passes(validator.ValidEmail("email", v)), v)
	}
}

func TestStringRules(t *testing.T) {
	t.Parallel()

	assert.False(t, passes(validator.Required("name", "\t")))
	assert.True(t, passes(validator.MinLen("p", "12345678", 8)))
	assert.False(t, passes(validator.MinLen("p", "1234567", 8)))
	assert.True(t, passes(validator.MaxLen("n", "Élodie", 6)))
	assert.False(t, passes(validator.MaxLen("n", "Élodies", 6)))
	assert.True(t, passes(validator.Equal("c", "abc", "abc")))
	assert.False(t, passes(validator.Equal("c", "abc", "abd")))
}

func TestValidOTP(t *testing.T) {
	t.Parallel()

	assert.True(t, passes(validator.ValidOTP("code", "123456", 6)))
	assert.False(t, passes(validator.ValidOTP("code", "12345", 6)))
	assert.False(t, passes(validator.ValidOTP("code", "12345a", 6)))
	assert.False(t, passes(validator.ValidOTP("code", "", 0)))
}

func TestDateRules(t *testing.T) {
	t.Parallel()

	assert.True(t, passes(validator.ValidDate("dob", "1990-02-28", validator.DateLayout)))
	assert.False(t, passes(validator.ValidDate("dob", "1990-02-30", validator.DateLayout)))
	assert.False(t, passes(validator.ValidDate("dob", "28/02/1990", validator.DateLayout)))

	assert.True(t, passes(validator.PastDate("dob", time.Now().Add(-time.Hour))))
	assert.False(t, passes(validator.PastDate("dob", time.Now().Add(time.Hour))))

	assert.True(t, passes(validator.MaxAge("dob", time.Now().AddDate(-130, 0, 1), 130)))
	assert.False(t, passes(validator.MaxAge("dob", time.Now().AddDate(-131, 0, 0), 130)))
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()

	assert.True(t, passes(validator.StrongPassword("password", "Metis#2024")))

	err := validator.Apply(validator.StrongPassword("password", "abcdefgh"))
	verrs := validator.ExtractValidationErrors(err)
	if assert.Len(t, verrs, 1) {
		assert.Contains(t, verrs[0].Message, "one uppercase letter")
		assert.Contains(t, verrs[0].Message, "one number")
		assert.NotContains(t, verrs[0].Message, "lowercase")
	}
}
