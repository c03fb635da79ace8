package subscription

import (
	"errors"
	"fmt"
)

// ErrTokenNotFound marks a well-formed subscription token that is bound to
// no subscriber. It is distinct from a validation failure: the shape was
// fine, the token is simply not recognized.
var ErrTokenNotFound = errors.New("subscription token not recognized")

// DeliveryError reports a failed confirmation or newsletter send, naming
// the recipient. Any state persisted before the send stays in place.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sending email to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
