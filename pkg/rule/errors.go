package rule

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is returned by a rule that cannot interpret a field.
var ErrMalformedEvent = errors.New("malformed event")

// Malformed wraps ErrMalformedEvent with a description of the bad field.
func Malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, fmt.Sprintf(format, args...))
}
