package nft

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Client provides token ownership and metadata lookups to other
// extensions.
type Client struct {
	tokens     tokenBucket
	registries registryBucket
}

// NewClient returns a client operating on the registry buckets.
func NewClient() Client {
	return Client{
		tokens:     tokenBucket{NewTokenBucket()},
		registries: registryBucket{NewRegistryBucket()},
	}
}

// Holder returns the current owner of the token.
func (c Client) Holder(db custody.ReadOnlyKVStore, registry custody.Address, tokenID []byte) (custody.Address, error) {
	t, err := c.tokens.Get(db, registry, string(tokenID))
	if err != nil {
		return nil, err
	}
	return t.Owner, nil
}

// Metadata returns the opaque metadata attached to the token.
func (c Client) Metadata(db custody.ReadOnlyKVStore, registry custody.Address, tokenID []byte) ([]byte, error) {
	t, err := c.tokens.Get(db, registry, string(tokenID))
	if err != nil {
		return nil, err
	}
	return t.Info, nil
}

// Attest returns the encoded Attestation of the current token ownership.
func (c Client) Attest(db custody.ReadOnlyKVStore, registry custody.Address, tokenID []byte) ([]byte, error) {
	t, err := c.tokens.Get(db, registry, string(tokenID))
	if err != nil {
		return nil, err
	}
	a := Attestation{
		Metadata:  &custody.Metadata{Schema: 1},
		Registry:  t.Registry,
		TokenID:   t.ID,
		Holder:    t.Owner,
		Approvals: t.Approvals,
	}
	return proto.Marshal(&a)
}

// Transfer moves the token from the current owner to a new one. It fails
// if from is not the current owner.
func (c Client) Transfer(db custody.KVStore, registry custody.Address, tokenID []byte, from, to custody.Address) error {
	t, err := c.tokens.Get(db, registry, string(tokenID))
	if err != nil {
		return err
	}
	if !t.Owner.Equals(from) {
		return errors.Wrapf(errors.ErrUnauthorized, "token %s is not owned by %s", t.ID, from)
	}
	return c.tokens.Transfer(db, t, to)
}

// tokenBucket extends the model bucket with token specific operations.
type tokenBucket struct {
	orm.ModelBucket
}

// Get returns the token or ErrNotFound.
func (b tokenBucket) Get(db custody.ReadOnlyKVStore, registry custody.Address, tokenID string) (*Token, error) {
	var t Token
	if err := b.One(db, TokenKey(registry, []byte(tokenID)), &t); err != nil {
		return nil, errors.Wrapf(err, "token %s", tokenID)
	}
	return &t, nil
}

// Transfer changes the owner and clears all approvals.
func (b tokenBucket) Transfer(db custody.KVStore, t *Token, to custody.Address) error {
	t.Owner = to
	t.Approvals = nil
	_, err := b.Put(db, TokenKey(t.Registry, []byte(t.ID)), t)
	return err
}

type registryBucket struct {
	orm.ModelBucket
}

// Get returns the registry with given address or ErrNotFound.
func (b registryBucket) Get(db custody.ReadOnlyKVStore, addr custody.Address) (*Registry, error) {
	var r Registry
	if err := b.One(db, addr, &r); err != nil {
		return nil, errors.Wrapf(err, "registry %s", addr)
	}
	return &r, nil
}

type operatorBucket struct {
	orm.ModelBucket
}

// IsOperator returns true if the operator may act for the owner on all of
// the owner's tokens in the registry.
func (b operatorBucket) IsOperator(db custody.ReadOnlyKVStore, registry, owner, operator custody.Address) (bool, error) {
	switch err := b.Has(db, OperatorKey(registry, owner, operator)); {
	case err == nil:
		return true, nil
	case errors.ErrNotFound.Is(err):
		return false, nil
	default:
		return false, err
	}
}
