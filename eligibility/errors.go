package eligibility

import "errors"

var (
	// ErrInvalidConfig is returned when a filter configuration fails validation.
	ErrInvalidConfig = errors.New("invalid filter configuration")

	// ErrUnknownRule is returned when a configuration disables a rule that does not exist.
	ErrUnknownRule = errors.New("unknown rule")
)
