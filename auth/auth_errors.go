package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrReLoginDeclined    = errors.New("re-login declined")
)
