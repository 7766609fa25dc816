package market

import (
	"errors"
	"fmt"
)

// Configuration errors. They are returned synchronously when a subscription is built
// or an adapter is resolved; streaming failures never surface as errors.
var (
	ErrInvalidParams       = errors.New("invalid subscription params")
	ErrUnsupportedExchange = errors.New("unsupported exchange")
)

func invalidParams(ch Channel, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParams, ch, reason)
}

// UnsupportedExchange wraps ErrUnsupportedExchange with the offending identifier.
func UnsupportedExchange(ex Exchange) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedExchange, string(ex))
}
