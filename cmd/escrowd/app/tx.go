package app

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/nft"
	"github.com/iov-one/custody/x/sigs"
)

// Tx carries exactly one message together with the signatures
// authorizing it.
//
// Field 1 holds the signatures. Every supported message type has its own
// field, and exactly one of them must be set. Use SetMsg to fill it.
type Tx struct {
	Signatures        []*sigs.StdSignature   `protobuf:"bytes,1,rep,name=signatures" json:"signatures,omitempty"`
	CashSendMsg       *cash.SendMsg          `protobuf:"bytes,2,opt,name=cash_send_msg" json:"cash_send_msg,omitempty"`
	CreateRegistryMsg *nft.CreateRegistryMsg `protobuf:"bytes,3,opt,name=create_registry_msg" json:"create_registry_msg,omitempty"`
	MintMsg           *nft.MintMsg           `protobuf:"bytes,4,opt,name=mint_msg" json:"mint_msg,omitempty"`
	TransferMsg       *nft.TransferMsg       `protobuf:"bytes,5,opt,name=transfer_msg" json:"transfer_msg,omitempty"`
	ApproveMsg        *nft.ApproveMsg        `protobuf:"bytes,6,opt,name=approve_msg" json:"approve_msg,omitempty"`
	NftSendMsg        *nft.SendMsg           `protobuf:"bytes,7,opt,name=nft_send_msg" json:"nft_send_msg,omitempty"`
	InstantiateMsg    *escrow.InstantiateMsg `protobuf:"bytes,8,opt,name=instantiate_msg" json:"instantiate_msg,omitempty"`
	DepositMsg        *escrow.DepositMsg     `protobuf:"bytes,9,opt,name=deposit_msg" json:"deposit_msg,omitempty"`
	SettleMsg         *escrow.SettleMsg      `protobuf:"bytes,10,opt,name=settle_msg" json:"settle_msg,omitempty"`
	RecoverMsg        *escrow.RecoverMsg     `protobuf:"bytes,11,opt,name=recover_msg" json:"recover_msg,omitempty"`
	RefundMsg         *escrow.RefundMsg      `protobuf:"bytes,12,opt,name=refund_msg" json:"refund_msg,omitempty"`
	RevokeMsg         *nft.RevokeMsg         `protobuf:"bytes,13,opt,name=revoke_msg" json:"revoke_msg,omitempty"`
	ApproveAllMsg     *nft.ApproveAllMsg     `protobuf:"bytes,14,opt,name=approve_all_msg" json:"approve_all_msg,omitempty"`
	RevokeAllMsg      *nft.RevokeAllMsg      `protobuf:"bytes,15,opt,name=revoke_all_msg" json:"revoke_all_msg,omitempty"`
}

func (tx *Tx) Reset()         { *tx = Tx{} }
func (tx *Tx) String() string { return proto.CompactTextString(tx) }
func (*Tx) ProtoMessage()     {}

// make sure tx fulfills all interfaces
var _ custody.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (custody.Tx, error) {
	tx := new(Tx)
	if err := proto.Unmarshal(bz, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SetMsg replaces the message of the transaction. Signatures are kept.
// Registry notifications are created by the registry itself and cannot be
// submitted in a transaction.
func (tx *Tx) SetMsg(msg custody.Msg) error {
	*tx = Tx{Signatures: tx.Signatures}
	switch m := msg.(type) {
	case *cash.SendMsg:
		tx.CashSendMsg = m
	case *nft.CreateRegistryMsg:
		tx.CreateRegistryMsg = m
	case *nft.MintMsg:
		tx.MintMsg = m
	case *nft.TransferMsg:
		tx.TransferMsg = m
	case *nft.ApproveMsg:
		tx.ApproveMsg = m
	case *nft.RevokeMsg:
		tx.RevokeMsg = m
	case *nft.ApproveAllMsg:
		tx.ApproveAllMsg = m
	case *nft.RevokeAllMsg:
		tx.RevokeAllMsg = m
	case *nft.SendMsg:
		tx.NftSendMsg = m
	case *escrow.InstantiateMsg:
		tx.InstantiateMsg = m
	case *escrow.DepositMsg:
		tx.DepositMsg = m
	case *escrow.SettleMsg:
		tx.SettleMsg = m
	case *escrow.RecoverMsg:
		tx.RecoverMsg = m
	case *escrow.RefundMsg:
		tx.RefundMsg = m
	default:
		return errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
	}
	return nil
}

// GetMsg returns the single message of this transaction.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	var msgs []custody.Msg
	add := func(set bool, msg custody.Msg) {
		if set {
			msgs = append(msgs, msg)
		}
	}
	add(tx.CashSendMsg != nil, tx.CashSendMsg)
	add(tx.CreateRegistryMsg != nil, tx.CreateRegistryMsg)
	add(tx.MintMsg != nil, tx.MintMsg)
	add(tx.TransferMsg != nil, tx.TransferMsg)
	add(tx.ApproveMsg != nil, tx.ApproveMsg)
	add(tx.RevokeMsg != nil, tx.RevokeMsg)
	add(tx.ApproveAllMsg != nil, tx.ApproveAllMsg)
	add(tx.RevokeAllMsg != nil, tx.RevokeAllMsg)
	add(tx.NftSendMsg != nil, tx.NftSendMsg)
	add(tx.InstantiateMsg != nil, tx.InstantiateMsg)
	add(tx.DepositMsg != nil, tx.DepositMsg)
	add(tx.SettleMsg != nil, tx.SettleMsg)
	add(tx.RecoverMsg != nil, tx.RecoverMsg)
	add(tx.RefundMsg != nil, tx.RefundMsg)

	switch len(msgs) {
	case 0:
		return nil, errors.Wrap(errors.ErrMsg, "transaction does not carry a message")
	case 1:
		return msgs[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "transaction carries %d messages", len(msgs))
	}
}

// GetSignatures implements sigs.SignedTx.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the serialized transaction without the signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signatures = nil
	return proto.Marshal(&unsigned)
}
