package errors

import "fmt"

var (
	ErrUnauthenticated    = fmt.Errorf("no authenticated identity")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrRemoteUnavailable  = fmt.Errorf("remote service unavailable")
	ErrMalformedEntity    = fmt.Errorf("malformed entity")
	ErrUsernameTaken      = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
)
