package roommodes

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks inputs outside an operation's domain. Every
	// validation error returned by this package wraps it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSearchSpaceTooLarge is returned when the per-axis index bounds for
	// a frequency ceiling would enumerate more candidates than the engine
	// allows. It wraps ErrInvalidArgument.
	ErrSearchSpaceTooLarge = fmt.Errorf("%w: mode search space too large", ErrInvalidArgument)
)
