package nft

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/price"
	"github.com/iov-one/custody/x"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	createRegistryCost int64 = 500
	mintCost           int64 = 100
	transferCost       int64 = 50
	approveCost        int64 = 50
)

// RegisterRoutes registers all registry handlers. Receivers are the
// addresses that take tokens only through SendMsg. Their notifications
// are dispatched through given handler, usually the application router.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, dispatch custody.Handler, receivers ...custody.Address) {
	h := newHandler(auth, receivers...)
	r.Handle(&CreateRegistryMsg{}, CreateRegistryHandler{h})
	r.Handle(&MintMsg{}, MintHandler{h})
	r.Handle(&TransferMsg{}, TransferHandler{h})
	r.Handle(&ApproveMsg{}, ApproveHandler{h})
	r.Handle(&RevokeMsg{}, RevokeHandler{h})
	r.Handle(&ApproveAllMsg{}, ApproveAllHandler{h})
	r.Handle(&RevokeAllMsg{}, RevokeAllHandler{h})
	r.Handle(&SendMsg{}, SendHandler{handler: h, dispatch: dispatch})
}

// receivers are the addresses with a ReceiveMsg handler.
type receivers []custody.Address

func (rs receivers) has(addr custody.Address) bool {
	for _, r := range rs {
		if r.Equals(addr) {
			return true
		}
	}
	return false
}

// handler holds what every registry handler needs.
type handler struct {
	auth       x.Authenticator
	seq        orm.Sequence
	registries registryBucket
	tokens     tokenBucket
	operators  operatorBucket
	receivers  receivers
}

func newHandler(auth x.Authenticator, rs ...custody.Address) handler {
	return handler{
		auth:       auth,
		seq:        orm.NewSequence(registryBucketName, "id"),
		registries: registryBucket{NewRegistryBucket()},
		tokens:     tokenBucket{NewTokenBucket()},
		operators:  operatorBucket{NewOperatorBucket()},
		receivers:  receivers(rs),
	}
}

// loadOwned loads the token and makes sure it is controlled by the
// signer, either as the owner, an approved address or an operator.
func (h handler) loadOwned(ctx custody.Context, db custody.ReadOnlyKVStore, registry custody.Address, tokenID string) (*Token, error) {
	t, err := h.tokens.Get(db, registry, tokenID)
	if err != nil {
		return nil, err
	}
	if x.HasAnyAddress(ctx, h.auth, t.Approvals...) {
		return t, nil
	}
	if err := h.controls(ctx, db, t); err != nil {
		return nil, err
	}
	return t, nil
}

// controls fails with ErrUnauthorized unless the signer is the token owner
// or an operator of the owner.
func (h handler) controls(ctx custody.Context, db custody.ReadOnlyKVStore, t *Token) error {
	if h.auth.HasAddress(ctx, t.Owner) {
		return nil
	}
	for _, addr := range x.GetAddresses(ctx, h.auth) {
		ok, err := h.operators.IsOperator(db, t.Registry, t.Owner, addr)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrUnauthorized, "token %s", t.ID)
}

// CreateRegistryHandler creates registries owned by the signer.
type CreateRegistryHandler struct {
	handler
}

var _ custody.Handler = CreateRegistryHandler{}

func (h CreateRegistryHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: createRegistryCost}, nil
}

// Deliver stores a new registry and returns its address as the result
// data.
func (h CreateRegistryHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.seq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "registry sequence")
	}
	reg := Registry{
		Metadata: &custody.Metadata{Schema: 1},
		ID:       id,
		Owner:    owner,
		Symbol:   msg.Symbol,
		Name:     msg.Name,
	}
	addr := reg.Address()
	if _, err := h.registries.Put(db, addr, &reg); err != nil {
		return nil, errors.Wrap(err, "save registry")
	}
	return &custody.DeliverResult{
		Data: addr,
		Tags: []common.KVPair{
			custody.Tag("registry", addr.String()),
			custody.Tag("owner", owner.String()),
		},
	}, nil
}

func (h CreateRegistryHandler) validate(ctx custody.Context, tx custody.Tx) (*CreateRegistryMsg, custody.Address, error) {
	var msg CreateRegistryMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	return &msg, signer.Address(), nil
}

// MintHandler creates tokens. Only the registry owner can mint.
type MintHandler struct {
	handler
}

var _ custody.Handler = MintHandler{}

func (h MintHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: mintCost}, nil
}

// Deliver stores a new token and returns its ID as the result data.
func (h MintHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, reg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	info, err := price.Encode(price.Metadata{
		Description: msg.Description,
		Price:       price.Descriptor{Denom: msg.Price.Denom, Amount: msg.Price.Amount},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode price")
	}
	token := Token{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: msg.Registry,
		ID:       reg.NextTokenID(),
		Owner:    msg.Owner,
		Info:     info,
	}
	if _, err := h.registries.Put(db, msg.Registry, reg); err != nil {
		return nil, errors.Wrap(err, "save registry")
	}
	if _, err := h.tokens.Put(db, TokenKey(token.Registry, []byte(token.ID)), &token); err != nil {
		return nil, errors.Wrap(err, "save token")
	}
	return &custody.DeliverResult{
		Data: []byte(token.ID),
		Tags: []common.KVPair{
			custody.Tag("registry", msg.Registry.String()),
			custody.Tag("token_id", token.ID),
			custody.Tag("owner", msg.Owner.String()),
			custody.Tag("price", msg.Price.String()),
		},
	}, nil
}

func (h MintHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*MintMsg, *Registry, error) {
	var msg MintMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	reg, err := h.registries.Get(db, msg.Registry)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, reg.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the registry owner can mint")
	}
	return &msg, reg, nil
}

// TransferHandler moves tokens between owners.
type TransferHandler struct {
	handler
}

var _ custody.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: transferCost}, nil
}

func (h TransferHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, token, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	sender := token.Owner
	if err := h.tokens.Transfer(db, token, msg.Recipient); err != nil {
		return nil, errors.Wrap(err, "transfer")
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("registry", msg.Registry.String()),
			custody.Tag("token_id", msg.TokenID),
			custody.Tag("sender", sender.String()),
			custody.Tag("recipient", msg.Recipient.String()),
		},
	}, nil
}

func (h TransferHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*TransferMsg, *Token, error) {
	var msg TransferMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if h.receivers.has(msg.Recipient) {
		return nil, nil, errors.Wrapf(errors.ErrInput, "recipient %s takes tokens only through %s", msg.Recipient, SendMsg{}.Path())
	}
	token, err := h.loadOwned(ctx, db, msg.Registry, msg.TokenID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, token, nil
}

// ApproveHandler grants transfer rights to a spender.
type ApproveHandler struct {
	handler
}

var _ custody.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: approveCost}, nil
}

func (h ApproveHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, token, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if !token.IsApproved(msg.Spender) {
		token.Approvals = append(token.Approvals, msg.Spender)
		if _, err := h.tokens.Put(db, TokenKey(token.Registry, []byte(token.ID)), token); err != nil {
			return nil, errors.Wrap(err, "save token")
		}
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("registry", msg.Registry.String()),
			custody.Tag("token_id", msg.TokenID),
			custody.Tag("spender", msg.Spender.String()),
		},
	}, nil
}

func (h ApproveHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*ApproveMsg, *Token, error) {
	var msg ApproveMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	token, err := h.tokens.Get(db, msg.Registry, msg.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if err := h.controls(ctx, db, token); err != nil {
		return nil, nil, errors.Wrap(err, "only the owner or an operator can approve")
	}
	return &msg, token, nil
}

// RevokeHandler removes a spender from the token approvals.
type RevokeHandler struct {
	handler
}

var _ custody.Handler = RevokeHandler{}

func (h RevokeHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: approveCost}, nil
}

func (h RevokeHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, token, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	kept := token.Approvals[:0]
	for _, a := range token.Approvals {
		if !a.Equals(msg.Spender) {
			kept = append(kept, a)
		}
	}
	token.Approvals = kept
	if _, err := h.tokens.Put(db, TokenKey(token.Registry, []byte(token.ID)), token); err != nil {
		return nil, errors.Wrap(err, "save token")
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("registry", msg.Registry.String()),
			custody.Tag("token_id", msg.TokenID),
			custody.Tag("spender", msg.Spender.String()),
		},
	}, nil
}

func (h RevokeHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*RevokeMsg, *Token, error) {
	var msg RevokeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	token, err := h.tokens.Get(db, msg.Registry, msg.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if err := h.controls(ctx, db, token); err != nil {
		return nil, nil, errors.Wrap(err, "only the owner or an operator can revoke")
	}
	if !token.IsApproved(msg.Spender) {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "spender %s is not approved", msg.Spender)
	}
	return &msg, token, nil
}

// ApproveAllHandler grants an operator rights over all tokens of the
// signer in a registry.
type ApproveAllHandler struct {
	handler
}

var _ custody.Handler = ApproveAllHandler{}

func (h ApproveAllHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: approveCost}, nil
}

func (h ApproveAllHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	op, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.operators.Put(db, OperatorKey(op.Registry, op.Owner, op.Operator), op); err != nil {
		return nil, errors.Wrap(err, "save operator")
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("registry", op.Registry.String()),
			custody.Tag("owner", op.Owner.String()),
			custody.Tag("operator", op.Operator.String()),
		},
	}, nil
}

func (h ApproveAllHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*Operator, error) {
	var msg ApproveAllMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.registries.Get(db, msg.Registry); err != nil {
		return nil, err
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	op := &Operator{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: msg.Registry,
		Owner:    signer.Address(),
		Operator: msg.Operator,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// RevokeAllHandler removes an operator of the signer.
type RevokeAllHandler struct {
	handler
}

var _ custody.Handler = RevokeAllHandler{}

func (h RevokeAllHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: approveCost}, nil
}

func (h RevokeAllHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.operators.Delete(db, OperatorKey(msg.Registry, owner, msg.Operator)); err != nil {
		return nil, errors.Wrap(err, "delete operator")
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("registry", msg.Registry.String()),
			custody.Tag("owner", owner.String()),
			custody.Tag("operator", msg.Operator.String()),
		},
	}, nil
}

func (h RevokeAllHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*RevokeAllMsg, custody.Address, error) {
	var msg RevokeAllMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	owner := signer.Address()
	ok, err := h.operators.IsOperator(db, msg.Registry, owner, msg.Operator)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "%s is not an operator of %s", msg.Operator, owner)
	}
	return &msg, owner, nil
}

// SendHandler transfers a token to a receiver. A registered receiver is
// notified as part of the same transaction, so a failing receiver fails
// the send as well.
type SendHandler struct {
	handler
	dispatch custody.Handler
}

var _ custody.Handler = SendHandler{}

func (h SendHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	_, notify, reg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res := &custody.CheckResult{}
	if h.receivers.has(notify.Receiver) {
		res, err = h.dispatch.Check(withRegistry(ctx, reg.Condition()), db, &receiveTx{Msg: notify})
		if err != nil {
			return nil, errors.Wrap(err, "receiver")
		}
		if res == nil {
			res = &custody.CheckResult{}
		}
	}
	res.GasAllocated += transferCost
	return res, nil
}

func (h SendHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	token, notify, reg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.Transfer(db, token, notify.Receiver); err != nil {
		return nil, errors.Wrap(err, "transfer")
	}
	res := &custody.DeliverResult{}
	if h.receivers.has(notify.Receiver) {
		res, err = h.dispatch.Deliver(withRegistry(ctx, reg.Condition()), db, &receiveTx{Msg: notify})
		if err != nil {
			return nil, errors.Wrap(err, "receiver")
		}
		if res == nil {
			res = &custody.DeliverResult{}
		}
	}
	res.Tags = append([]common.KVPair{
		custody.Tag("registry", notify.Registry.String()),
		custody.Tag("token_id", notify.TokenID),
		custody.Tag("recipient", notify.Receiver.String()),
	}, res.Tags...)
	return res, nil
}

func (h SendHandler) validate(ctx custody.Context, db custody.ReadOnlyKVStore, tx custody.Tx) (*Token, *ReceiveMsg, *Registry, error) {
	var msg SendMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	reg, err := h.registries.Get(db, msg.Registry)
	if err != nil {
		return nil, nil, nil, err
	}
	token, err := h.loadOwned(ctx, db, msg.Registry, msg.TokenID)
	if err != nil {
		return nil, nil, nil, err
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	notify := &ReceiveMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: msg.Registry,
		TokenID:  msg.TokenID,
		Sender:   signer.Address(),
		Receiver: msg.Receiver,
		Payee:    msg.Payee,
	}
	return token, notify, reg, nil
}

// receiveTx carries a notification to the receiver handler.
type receiveTx struct {
	Msg *ReceiveMsg `protobuf:"bytes,1,opt,name=msg" json:"msg,omitempty"`
}

var _ custody.Tx = (*receiveTx)(nil)

func (tx *receiveTx) Reset()         { *tx = receiveTx{} }
func (tx *receiveTx) String() string { return proto.CompactTextString(tx) }
func (*receiveTx) ProtoMessage()     {}

func (tx *receiveTx) GetMsg() (custody.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "notification")
	}
	return tx.Msg, nil
}
