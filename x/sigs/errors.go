package sigs

import "github.com/iov-one/custody/errors"

// ErrInvalidSequence is returned when the signature nonce does not match
// the expected one.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
