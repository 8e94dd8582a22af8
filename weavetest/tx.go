package weavetest

import (
	"fmt"

	"github.com/iov-one/custody"
)

// Tx represents a transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg custody.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ custody.Tx = (*Tx)(nil)

// GetMsg returns the message and the configured error.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	return tx.Msg, tx.Err
}

func (tx *Tx) Reset()         { *tx = Tx{} }
func (tx *Tx) String() string { return fmt.Sprintf("tx with %v", tx.Msg) }
func (*Tx) ProtoMessage()     {}

// Unmarshal is not supported.
func (tx *Tx) Unmarshal([]byte) error {
	panic("not implemented")
}

// Marshal is not supported.
func (tx *Tx) Marshal() ([]byte, error) {
	panic("not implemented")
}

// Msg is a generic message with a configurable route.
type Msg struct {
	// RoutePath returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ custody.Msg = (*Msg)(nil)

// Path returns the configured route.
func (m *Msg) Path() string {
	return m.RoutePath
}

// Validate returns the configured error.
func (m *Msg) Validate() error {
	return m.Err
}

// Reset clears the serialized form. The route and the configured error
// are kept.
func (m *Msg) Reset() { m.Serialized = nil }

func (m *Msg) String() string { return fmt.Sprintf("%s: %X", m.RoutePath, m.Serialized) }
func (*Msg) ProtoMessage()    {}

// Unmarshal stores the data as it is.
func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

// Marshal returns the stored data.
func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}
