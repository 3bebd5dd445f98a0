// Package echoerr holds the error conditions shared by the postman echo client packages.
//
// Callers match them with errors.Is; every package wraps them with context
// using fmt.Errorf("%w: ...").
package echoerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a bad input detected before any network activity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange reports a numeric endpoint parameter outside its accepted range.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidArgument)

	// ErrNotFound reports a lookup of a name absent from a decoded response.
	ErrNotFound = errors.New("not found")

	// ErrParse reports a malformed response document.
	ErrParse = errors.New("parse error")
)
