package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const bucketName = "escrow"

// EscrowedAsset is a token held by the custodian that was not settled yet.
type EscrowedAsset struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	AssetID  []byte            `protobuf:"bytes,3,opt,name=asset_id,proto3" json:"asset_id,omitempty"`
	// Depositor is the address that sent the token. Recovered tokens are
	// returned to it.
	Depositor custody.Address `protobuf:"bytes,4,opt,name=depositor,proto3" json:"depositor,omitempty"`
	// Payee receives the payment when the token is settled.
	Payee custody.Address `protobuf:"bytes,5,opt,name=payee,proto3" json:"payee,omitempty"`
	// CustodyProof is the registry attestation taken when the token was
	// received.
	CustodyProof []byte `protobuf:"bytes,6,opt,name=custody_proof,proto3" json:"custody_proof,omitempty"`
}

func (a *EscrowedAsset) Reset()         { *a = EscrowedAsset{} }
func (a *EscrowedAsset) String() string { return proto.CompactTextString(a) }
func (*EscrowedAsset) ProtoMessage()    {}

var _ orm.Model = (*EscrowedAsset)(nil)

// Key returns the ledger key of this asset.
func (a *EscrowedAsset) Key() []byte {
	return AssetKey(a.Registry, a.AssetID)
}

func (a *EscrowedAsset) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", a.Registry.Validate())
	if len(a.AssetID) == 0 {
		errs = errors.Append(errs, errors.Field("AssetID", errors.ErrEmpty, "required"))
	}
	errs = errors.AppendField(errs, "Depositor", a.Depositor.Validate())
	errs = errors.AppendField(errs, "Payee", a.Payee.Validate())
	return errs
}

// AssetKey returns the ledger key: the registry address followed by the
// asset ID. Registry addresses have a fixed length, so keys are unique and
// all assets of a registry share a prefix.
func AssetKey(registry custody.Address, assetID []byte) []byte {
	return append(append([]byte{}, registry...), assetID...)
}

// NewBucket returns the bucket of escrowed assets keyed by AssetKey.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(bucketName, &EscrowedAsset{})
}
