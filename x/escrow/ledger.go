package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Ledger keeps track of escrowed assets.
type Ledger struct {
	bucket orm.ModelBucket
}

// NewLedger returns a ledger over the escrow bucket.
func NewLedger() Ledger {
	return Ledger{bucket: NewBucket()}
}

// Record stores a new asset. It fails with ErrDuplicateDeposit if the asset
// is already recorded.
func (l Ledger) Record(db custody.KVStore, a *EscrowedAsset) error {
	key := a.Key()
	switch err := l.bucket.Has(db, key); {
	case err == nil:
		return errors.Wrapf(ErrDuplicateDeposit, "asset %q", a.AssetID)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	if _, err := l.bucket.Put(db, key, a); err != nil {
		return errors.Wrap(err, "record asset")
	}
	return nil
}

// Get returns a recorded asset or ErrNotFound.
func (l Ledger) Get(db custody.ReadOnlyKVStore, registry custody.Address, assetID []byte) (*EscrowedAsset, error) {
	var a EscrowedAsset
	if err := l.bucket.One(db, AssetKey(registry, assetID), &a); err != nil {
		return nil, errors.Wrapf(err, "asset %q", assetID)
	}
	return &a, nil
}

// Take returns a recorded asset and removes it from the ledger. Only one
// caller can take an asset.
func (l Ledger) Take(db custody.KVStore, registry custody.Address, assetID []byte) (*EscrowedAsset, error) {
	a, err := l.Get(db, registry, assetID)
	if err != nil {
		return nil, err
	}
	if err := l.bucket.Delete(db, a.Key()); err != nil {
		return nil, errors.Wrap(err, "remove asset")
	}
	return a, nil
}

// List returns all assets recorded for given registry. A nil registry
// lists all assets.
func (l Ledger) List(db custody.ReadOnlyKVStore, registry custody.Address) ([]*EscrowedAsset, error) {
	var assets []*EscrowedAsset
	if _, err := l.bucket.PrefixScan(db, registry, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
