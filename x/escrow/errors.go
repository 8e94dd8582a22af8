package escrow

import (
	"github.com/iov-one/custody/errors"
)

var (
	// ErrDuplicateDeposit is returned when a token is already recorded.
	ErrDuplicateDeposit = errors.Register(160, "duplicate deposit")

	// ErrCustodyMismatch is returned when the registry does not report
	// the custodian as the token holder.
	ErrCustodyMismatch = errors.Register(161, "custody mismatch")

	// ErrInsufficientFunds is returned when the custodian does not hold
	// enough currency to pay for a token.
	ErrInsufficientFunds = errors.Register(162, "insufficient funds")
)
