package escrow

import (
	"github.com/iov-one/custody"
)

// Registry is the view of the token registry the escrow relies on. It is
// the only source of truth for token ownership and metadata.
type Registry interface {
	// Holder returns the current owner of the token.
	Holder(db custody.ReadOnlyKVStore, registry custody.Address, assetID []byte) (custody.Address, error)

	// Metadata returns the opaque metadata blob of the token.
	Metadata(db custody.ReadOnlyKVStore, registry custody.Address, assetID []byte) ([]byte, error)

	// Attest returns a snapshot of the token ownership, as issued by the
	// registry.
	Attest(db custody.ReadOnlyKVStore, registry custody.Address, assetID []byte) ([]byte, error)

	// Transfer moves the token to a new owner. It fails if from is not
	// the current owner.
	Transfer(db custody.KVStore, registry custody.Address, assetID []byte, from, to custody.Address) error
}
