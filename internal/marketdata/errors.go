package marketdata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest is returned for empty ticker sets, bad symbols or invalid ranges
	ErrInvalidRequest = errors.New("invalid price request")
	// ErrDataUnavailable matches every *DataUnavailableError
	ErrDataUnavailable = errors.New("price data unavailable")
)

// DataUnavailableError lists the symbols for which no usable history came back.
// No metric may be computed from a load that failed this way.
type DataUnavailableError struct {
	Symbols []string
	Reason  string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("price data unavailable for %s", strings.Join(e.Symbols, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrDataUnavailable) hold
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}
