package escrow

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
)

var (
	_ custody.Msg = (*InstantiateMsg)(nil)
	_ custody.Msg = (*DepositMsg)(nil)
	_ custody.Msg = (*SettleMsg)(nil)
	_ custody.Msg = (*RecoverMsg)(nil)
	_ custody.Msg = (*RefundMsg)(nil)
)

// InstantiateMsg configures the escrow. The signer becomes the payer of
// record.
type InstantiateMsg struct {
	Metadata   *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registries []custody.Address `protobuf:"bytes,2,rep,name=registries,proto3" json:"registries,omitempty"`
}

func (m *InstantiateMsg) Reset()         { *m = InstantiateMsg{} }
func (m *InstantiateMsg) String() string { return proto.CompactTextString(m) }
func (*InstantiateMsg) ProtoMessage()    {}

func (InstantiateMsg) Path() string {
	return "escrow/instantiate"
}

func (m *InstantiateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.Registries) == 0 {
		errs = errors.Append(errs, errors.Field("Registries", errors.ErrEmpty, "at least one registry required"))
	}
	for i, r := range m.Registries {
		errs = errors.AppendField(errs, fmt.Sprintf("Registries.%d", i), r.Validate())
	}
	return errs
}

// DepositMsg funds the custodian from the source account.
type DepositMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Source   custody.Address   `protobuf:"bytes,2,opt,name=source,proto3" json:"source,omitempty"`
	Amount   coin.Coins        `protobuf:"bytes,3,rep,name=amount" json:"amount,omitempty"`
}

func (m *DepositMsg) Reset()         { *m = DepositMsg{} }
func (m *DepositMsg) String() string { return proto.CompactTextString(m) }
func (*DepositMsg) ProtoMessage()    {}

func (DepositMsg) Path() string {
	return "escrow/deposit"
}

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	if m.Amount.IsEmpty() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrInput, "amount is empty"))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	return errs
}

// SettleMsg retries the settlement of a recorded asset.
type SettleMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	AssetID  []byte            `protobuf:"bytes,3,opt,name=asset_id,proto3" json:"asset_id,omitempty"`
}

func (m *SettleMsg) Reset()         { *m = SettleMsg{} }
func (m *SettleMsg) String() string { return proto.CompactTextString(m) }
func (*SettleMsg) ProtoMessage()    {}

func (SettleMsg) Path() string {
	return "escrow/settle"
}

func (m *SettleMsg) Validate() error {
	return validateAssetRef(m.Metadata, m.Registry, m.AssetID)
}

// RecoverMsg returns a recorded asset to its depositor.
type RecoverMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	AssetID  []byte            `protobuf:"bytes,3,opt,name=asset_id,proto3" json:"asset_id,omitempty"`
}

func (m *RecoverMsg) Reset()         { *m = RecoverMsg{} }
func (m *RecoverMsg) String() string { return proto.CompactTextString(m) }
func (*RecoverMsg) ProtoMessage()    {}

func (RecoverMsg) Path() string {
	return "escrow/recover"
}

func (m *RecoverMsg) Validate() error {
	return validateAssetRef(m.Metadata, m.Registry, m.AssetID)
}

// RefundMsg sends all custodian funds to the payer of record.
type RefundMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
}

func (m *RefundMsg) Reset()         { *m = RefundMsg{} }
func (m *RefundMsg) String() string { return proto.CompactTextString(m) }
func (*RefundMsg) ProtoMessage()    {}

func (RefundMsg) Path() string {
	return "escrow/refund"
}

func (m *RefundMsg) Validate() error {
	return errors.Wrap(m.Metadata.Validate(), "metadata")
}

func validateAssetRef(meta *custody.Metadata, registry custody.Address, assetID []byte) error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	errs = errors.AppendField(errs, "Registry", registry.Validate())
	if len(assetID) == 0 {
		errs = errors.Append(errs, errors.Field("AssetID", errors.ErrEmpty, "required"))
	}
	return errs
}
