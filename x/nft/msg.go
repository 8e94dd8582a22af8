package nft

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
)

const maxDescriptionLength = 256

var (
	_ custody.Msg = (*CreateRegistryMsg)(nil)
	_ custody.Msg = (*MintMsg)(nil)
	_ custody.Msg = (*TransferMsg)(nil)
	_ custody.Msg = (*ApproveMsg)(nil)
	_ custody.Msg = (*RevokeMsg)(nil)
	_ custody.Msg = (*ApproveAllMsg)(nil)
	_ custody.Msg = (*RevokeAllMsg)(nil)
	_ custody.Msg = (*SendMsg)(nil)
	_ custody.Msg = (*ReceiveMsg)(nil)
)

// CreateRegistryMsg creates a new registry owned by the signer.
type CreateRegistryMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Symbol   string            `protobuf:"bytes,2,opt,name=symbol,proto3" json:"symbol,omitempty"`
	Name     string            `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
}

func (m *CreateRegistryMsg) Reset()         { *m = CreateRegistryMsg{} }
func (m *CreateRegistryMsg) String() string { return proto.CompactTextString(m) }
func (*CreateRegistryMsg) ProtoMessage()    {}

func (CreateRegistryMsg) Path() string {
	return "nft/create_registry"
}

func (m *CreateRegistryMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isSymbol(m.Symbol) {
		errs = errors.Append(errs, errors.Field("Symbol", errors.ErrInput, "invalid symbol"))
	}
	if len(m.Name) > maxNameLength {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "name too long"))
	}
	return errs
}

// MintMsg creates a new token. Only the registry owner can mint. The price
// is stored in the token metadata.
type MintMsg struct {
	Metadata    *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry    custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	Owner       custody.Address   `protobuf:"bytes,3,opt,name=owner,proto3" json:"owner,omitempty"`
	Description string            `protobuf:"bytes,4,opt,name=description,proto3" json:"description,omitempty"`
	Price       *coin.Coin        `protobuf:"bytes,5,opt,name=price" json:"price,omitempty"`
}

func (m *MintMsg) Reset()         { *m = MintMsg{} }
func (m *MintMsg) String() string { return proto.CompactTextString(m) }
func (*MintMsg) ProtoMessage()    {}

func (MintMsg) Path() string {
	return "nft/mint"
}

func (m *MintMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if len(m.Description) > maxDescriptionLength {
		errs = errors.Append(errs, errors.Field("Description", errors.ErrInput, "description too long"))
	}
	if m.Price == nil || !m.Price.IsPositive() {
		errs = errors.Append(errs, errors.Field("Price", errors.ErrAmount, "must be positive"))
	} else {
		errs = errors.AppendField(errs, "Price", m.Price.Validate())
	}
	return errs
}

// TransferMsg moves a token to a new owner. Signed by the owner, an
// approved address or an operator of the owner.
//
// Addresses that expect a ReceiveMsg, like the escrow custodian, cannot be
// the recipient of a transfer. Use SendMsg for them.
type TransferMsg struct {
	Metadata  *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry  custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID   string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	Recipient custody.Address   `protobuf:"bytes,4,opt,name=recipient,proto3" json:"recipient,omitempty"`
}

func (m *TransferMsg) Reset()         { *m = TransferMsg{} }
func (m *TransferMsg) String() string { return proto.CompactTextString(m) }
func (*TransferMsg) ProtoMessage()    {}

func (TransferMsg) Path() string {
	return "nft/transfer"
}

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "TokenID", validateTokenID(m.TokenID))
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	return errs
}

// ApproveMsg allows the spender to transfer the token until the next
// ownership change. Signed by the owner or an operator of the owner.
type ApproveMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID  string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	Spender  custody.Address   `protobuf:"bytes,4,opt,name=spender,proto3" json:"spender,omitempty"`
}

func (m *ApproveMsg) Reset()         { *m = ApproveMsg{} }
func (m *ApproveMsg) String() string { return proto.CompactTextString(m) }
func (*ApproveMsg) ProtoMessage()    {}

func (ApproveMsg) Path() string {
	return "nft/approve"
}

func (m *ApproveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "TokenID", validateTokenID(m.TokenID))
	errs = errors.AppendField(errs, "Spender", m.Spender.Validate())
	return errs
}

// RevokeMsg removes a spender approved with ApproveMsg. Signed by the owner
// or an operator of the owner.
type RevokeMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID  string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	Spender  custody.Address   `protobuf:"bytes,4,opt,name=spender,proto3" json:"spender,omitempty"`
}

func (m *RevokeMsg) Reset()         { *m = RevokeMsg{} }
func (m *RevokeMsg) String() string { return proto.CompactTextString(m) }
func (*RevokeMsg) ProtoMessage()    {}

func (RevokeMsg) Path() string {
	return "nft/revoke"
}

func (m *RevokeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "TokenID", validateTokenID(m.TokenID))
	errs = errors.AppendField(errs, "Spender", m.Spender.Validate())
	return errs
}

// ApproveAllMsg makes the operator act for the signer on every token the
// signer owns in the registry, now or later. Unlike ApproveMsg the grant
// survives ownership changes of single tokens.
type ApproveAllMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	Operator custody.Address   `protobuf:"bytes,3,opt,name=operator,proto3" json:"operator,omitempty"`
}

func (m *ApproveAllMsg) Reset()         { *m = ApproveAllMsg{} }
func (m *ApproveAllMsg) String() string { return proto.CompactTextString(m) }
func (*ApproveAllMsg) ProtoMessage()    {}

func (ApproveAllMsg) Path() string {
	return "nft/approve_all"
}

func (m *ApproveAllMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "Operator", m.Operator.Validate())
	return errs
}

// RevokeAllMsg removes an operator of the signer.
type RevokeAllMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	Operator custody.Address   `protobuf:"bytes,3,opt,name=operator,proto3" json:"operator,omitempty"`
}

func (m *RevokeAllMsg) Reset()         { *m = RevokeAllMsg{} }
func (m *RevokeAllMsg) String() string { return proto.CompactTextString(m) }
func (*RevokeAllMsg) ProtoMessage()    {}

func (RevokeAllMsg) Path() string {
	return "nft/revoke_all"
}

func (m *RevokeAllMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "Operator", m.Operator.Validate())
	return errs
}

// SendMsg transfers a token to the receiver. Receivers registered with
// RegisterRoutes, like the escrow custodian, are notified with a
// ReceiveMsg authenticated by the registry, and a failing notification
// fails the send. Any other receiver gets a plain transfer.
type SendMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID  string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	Receiver custody.Address   `protobuf:"bytes,4,opt,name=receiver,proto3" json:"receiver,omitempty"`
	// Payee is passed to the receiver as the counterparty of the sender.
	// Optional.
	Payee custody.Address `protobuf:"bytes,5,opt,name=payee,proto3" json:"payee,omitempty"`
}

func (m *SendMsg) Reset()         { *m = SendMsg{} }
func (m *SendMsg) String() string { return proto.CompactTextString(m) }
func (*SendMsg) ProtoMessage()    {}

func (SendMsg) Path() string {
	return "nft/send"
}

func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "TokenID", validateTokenID(m.TokenID))
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	if m.Payee != nil {
		errs = errors.AppendField(errs, "Payee", m.Payee.Validate())
	}
	return errs
}

// ReceiveMsg notifies the receiver that a token was transferred to it. It
// is created only by the registry while processing SendMsg and is
// authenticated with the registry condition.
type ReceiveMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID  string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	// Sender is the address that signed the send.
	Sender   custody.Address `protobuf:"bytes,4,opt,name=sender,proto3" json:"sender,omitempty"`
	Receiver custody.Address `protobuf:"bytes,5,opt,name=receiver,proto3" json:"receiver,omitempty"`
	// Payee is the counterparty designated by the sender. Empty when the
	// sender did not designate one.
	Payee custody.Address `protobuf:"bytes,6,opt,name=payee,proto3" json:"payee,omitempty"`
}

func (m *ReceiveMsg) Reset()         { *m = ReceiveMsg{} }
func (m *ReceiveMsg) String() string { return proto.CompactTextString(m) }
func (*ReceiveMsg) ProtoMessage()    {}

// ReceivePath is the route of ReceiveMsg. A receiver registers its
// handler under this path.
const ReceivePath = "nft/receive"

func (ReceiveMsg) Path() string {
	return ReceivePath
}

func (m *ReceiveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", m.Registry.Validate())
	errs = errors.AppendField(errs, "TokenID", validateTokenID(m.TokenID))
	errs = errors.AppendField(errs, "Sender", m.Sender.Validate())
	errs = errors.AppendField(errs, "Receiver", m.Receiver.Validate())
	if m.Payee != nil {
		errs = errors.AppendField(errs, "Payee", m.Payee.Validate())
	}
	return errs
}

func validateTokenID(id string) error {
	if !isTokenID(id) {
		return errors.Wrapf(errors.ErrInput, "invalid token ID %q", id)
	}
	return nil
}
