package registry

import "errors"

var (
	ErrUserNotFound       = errors.New("registry: user not found")
	ErrUserExists         = errors.New("registry: user already exists")
	ErrInvalidGenderType  = errors.New("registry: unknown gender type")
	ErrFailedToCreateUser = errors.New("registry: failed to create user")
	ErrFailedToQuery      = errors.New("registry: query failed")
)
