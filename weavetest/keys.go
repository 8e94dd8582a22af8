package weavetest

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
)

// NewKey returns a new random signing key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a condition of a new random key.
func NewCondition() custody.Condition {
	return NewKey().PublicKey().Condition()
}
