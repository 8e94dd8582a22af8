package nft

import (
	"context"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/price"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/tendermint/tendermint/libs/common"
)

// receiver records the notifications it gets.
type receiver struct {
	got           *ReceiveMsg
	authenticated bool
	err           error
}

func (r *receiver) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return &custody.CheckResult{}, r.err
}

func (r *receiver) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	var msg ReceiveMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	r.got = &msg
	r.authenticated = Authenticate{}.HasAddress(ctx, msg.Registry)
	if r.err != nil {
		return nil, r.err
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{custody.Tag("received", msg.TokenID)},
	}, nil
}

func TestRegistryLifecycle(t *testing.T) {
	owner := weavetest.NewCondition()
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	carol := weavetest.NewCondition()
	escrow := weavetest.NewCondition()

	auth := &weavetest.CtxAuth{Key: "auth"}
	h := newHandler(auth, escrow.Address())
	rcv := &receiver{}
	db := store.MemStore()

	deliver := func(signer custody.Condition, handler custody.Handler, msg custody.Msg) (*custody.DeliverResult, error) {
		ctx := auth.SetConditions(context.Background(), signer)
		if _, err := handler.Check(ctx, db.CacheWrap(), &weavetest.Tx{Msg: msg}); err != nil {
			return nil, err
		}
		return handler.Deliver(ctx, db, &weavetest.Tx{Msg: msg})
	}

	res, err := deliver(owner, CreateRegistryHandler{h}, &CreateRegistryMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Symbol:   "ART",
		Name:     "Art collection",
	})
	assert.Nil(t, err)
	registry := custody.Address(res.Data)

	reg, err := h.registries.Get(db, registry)
	assert.Nil(t, err)
	assert.Equal(t, registry, reg.Address())
	assert.Equal(t, owner.Address(), reg.Owner)

	mint := &MintMsg{
		Metadata:    &custody.Metadata{Schema: 1},
		Registry:    registry,
		Owner:       alice.Address(),
		Description: "a painting",
		Price:       coin.NewCoinp(100, "u"),
	}
	_, err = deliver(alice, MintHandler{h}, mint)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	res, err = deliver(owner, MintHandler{h}, mint)
	assert.Nil(t, err)
	tokenID := res.Data
	assert.Equal(t, "ART.1", string(tokenID))

	client := NewClient()
	holder, err := client.Holder(db, registry, tokenID)
	assert.Nil(t, err)
	assert.Equal(t, alice.Address(), holder)
	info, err := client.Metadata(db, registry, tokenID)
	assert.Nil(t, err)
	desc, err := price.Decode(info)
	assert.Nil(t, err)
	assert.Equal(t, price.Descriptor{Denom: "u", Amount: 100}, desc)

	transfer := func(to custody.Address) *TransferMsg {
		return &TransferMsg{
			Metadata:  &custody.Metadata{Schema: 1},
			Registry:  registry,
			TokenID:   string(tokenID),
			Recipient: to,
		}
	}
	_, err = deliver(bob, TransferHandler{h}, transfer(carol.Address()))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = deliver(bob, ApproveHandler{h}, &ApproveMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: registry,
		TokenID:  string(tokenID),
		Spender:  bob.Address(),
	})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = deliver(alice, ApproveHandler{h}, &ApproveMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: registry,
		TokenID:  string(tokenID),
		Spender:  bob.Address(),
	})
	assert.Nil(t, err)

	_, err = deliver(bob, TransferHandler{h}, transfer(carol.Address()))
	assert.Nil(t, err)
	token, err := h.tokens.Get(db, registry, string(tokenID))
	assert.Nil(t, err)
	assert.Equal(t, carol.Address(), token.Owner)
	if len(token.Approvals) != 0 {
		t.Fatalf("approvals not cleared: %v", token.Approvals)
	}

	// Approval does not survive an ownership change.
	_, err = deliver(bob, TransferHandler{h}, transfer(bob.Address()))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	send := &SendMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: registry,
		TokenID:  string(tokenID),
		Receiver: escrow.Address(),
		Payee:    alice.Address(),
	}
	res, err = deliver(carol, SendHandler{handler: h, dispatch: rcv}, send)
	assert.Nil(t, err)
	if !rcv.authenticated {
		t.Fatal("receiver did not see the registry as authenticated")
	}
	assert.Equal(t, carol.Address(), rcv.got.Sender)
	assert.Equal(t, alice.Address(), rcv.got.Payee)
	assert.Equal(t, escrow.Address(), rcv.got.Receiver)
	assert.Equal(t, "received", string(res.Tags[len(res.Tags)-1].Key))

	holder, err = client.Holder(db, registry, tokenID)
	assert.Nil(t, err)
	assert.Equal(t, escrow.Address(), holder)

	raw, err := client.Attest(db, registry, tokenID)
	assert.Nil(t, err)
	var att Attestation
	assert.Nil(t, proto.Unmarshal(raw, &att))
	assert.Equal(t, escrow.Address(), att.Holder)
	assert.Equal(t, string(tokenID), att.TokenID)
}

func TestSendFailsWithReceiver(t *testing.T) {
	owner := weavetest.NewCondition()
	target := weavetest.NewCondition().Address()
	auth := &weavetest.Auth{Signer: owner}
	h := newHandler(auth, target)
	db := store.MemStore()
	ctx := context.Background()

	registry, tokenID := createToken(t, db, owner.Address())

	rcv := &receiver{err: errors.ErrState.New("not accepted")}
	send := &SendMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: registry,
		TokenID:  tokenID,
		Receiver: target,
	}
	handler := SendHandler{handler: h, dispatch: rcv}
	_, err := handler.Check(ctx, db, &weavetest.Tx{Msg: send})
	assert.IsErr(t, errors.ErrState, err)
	_, err = handler.Deliver(ctx, db, &weavetest.Tx{Msg: send})
	assert.IsErr(t, errors.ErrState, err)
}

func TestTransferToReceiverRejected(t *testing.T) {
	owner := weavetest.NewCondition()
	target := weavetest.NewCondition().Address()
	auth := &weavetest.Auth{Signer: owner}
	h := newHandler(auth, target)
	db := store.MemStore()
	ctx := context.Background()

	registry, tokenID := createToken(t, db, owner.Address())
	transfer := &TransferMsg{
		Metadata:  &custody.Metadata{Schema: 1},
		Registry:  registry,
		TokenID:   tokenID,
		Recipient: target,
	}
	_, err := TransferHandler{h}.Check(ctx, db, &weavetest.Tx{Msg: transfer})
	assert.IsErr(t, errors.ErrInput, err)
	_, err = TransferHandler{h}.Deliver(ctx, db, &weavetest.Tx{Msg: transfer})
	assert.IsErr(t, errors.ErrInput, err)

	holder, err := NewClient().Holder(db, registry, []byte(tokenID))
	assert.Nil(t, err)
	assert.Equal(t, owner.Address(), holder)
}

func TestSendWithoutNotification(t *testing.T) {
	owner := weavetest.NewCondition()
	auth := &weavetest.Auth{Signer: owner}
	h := newHandler(auth, weavetest.NewCondition().Address())
	db := store.MemStore()
	ctx := context.Background()

	registry, tokenID := createToken(t, db, owner.Address())

	rcv := &receiver{err: errors.ErrState.New("not expected")}
	plain := weavetest.NewCondition().Address()
	send := &SendMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: registry,
		TokenID:  tokenID,
		Receiver: plain,
	}
	handler := SendHandler{handler: h, dispatch: rcv}
	_, err := handler.Check(ctx, db, &weavetest.Tx{Msg: send})
	assert.Nil(t, err)
	_, err = handler.Deliver(ctx, db, &weavetest.Tx{Msg: send})
	assert.Nil(t, err)
	if rcv.got != nil {
		t.Fatalf("unregistered receiver notified: %v", rcv.got)
	}

	holder, err := NewClient().Holder(db, registry, []byte(tokenID))
	assert.Nil(t, err)
	assert.Equal(t, plain, holder)
}

func TestRevokeAndOperators(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	carol := weavetest.NewCondition()

	auth := &weavetest.CtxAuth{Key: "auth"}
	h := newHandler(auth)
	db := store.MemStore()

	deliver := func(signer custody.Condition, handler custody.Handler, msg custody.Msg) error {
		ctx := auth.SetConditions(context.Background(), signer)
		if _, err := handler.Check(ctx, db.CacheWrap(), &weavetest.Tx{Msg: msg}); err != nil {
			return err
		}
		_, err := handler.Deliver(ctx, db, &weavetest.Tx{Msg: msg})
		return err
	}
	meta := &custody.Metadata{Schema: 1}
	registry, tokenID := createToken(t, db, alice.Address())

	assert.Nil(t, deliver(alice, ApproveHandler{h}, &ApproveMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Spender: bob.Address()}))
	revoke := &RevokeMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Spender: bob.Address()}
	assert.IsErr(t, errors.ErrUnauthorized, deliver(bob, RevokeHandler{h}, revoke))
	assert.Nil(t, deliver(alice, RevokeHandler{h}, revoke))
	assert.IsErr(t, errors.ErrNotFound, deliver(alice, RevokeHandler{h}, revoke))

	transfer := &TransferMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Recipient: carol.Address()}
	assert.IsErr(t, errors.ErrUnauthorized, deliver(bob, TransferHandler{h}, transfer))

	approveAll := &ApproveAllMsg{Metadata: meta, Registry: registry, Operator: bob.Address()}
	assert.IsErr(t, errors.ErrNotFound, deliver(alice, ApproveAllHandler{h}, &ApproveAllMsg{
		Metadata: meta,
		Registry: weavetest.NewCondition().Address(),
		Operator: bob.Address(),
	}))
	assert.IsErr(t, errors.ErrInput, deliver(alice, ApproveAllHandler{h}, &ApproveAllMsg{Metadata: meta, Registry: registry, Operator: alice.Address()}))
	assert.Nil(t, deliver(alice, ApproveAllHandler{h}, approveAll))

	ok, err := h.operators.IsOperator(db, registry, alice.Address(), bob.Address())
	assert.Nil(t, err)
	if !ok {
		t.Fatal("operator not stored")
	}

	// An operator can approve others and move the token.
	assert.Nil(t, deliver(bob, ApproveHandler{h}, &ApproveMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Spender: carol.Address()}))
	assert.Nil(t, deliver(bob, TransferHandler{h}, transfer))
	token, err := h.tokens.Get(db, registry, tokenID)
	assert.Nil(t, err)
	assert.Equal(t, carol.Address(), token.Owner)

	// The grant covers the tokens of alice only.
	back := &TransferMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Recipient: alice.Address()}
	assert.IsErr(t, errors.ErrUnauthorized, deliver(bob, TransferHandler{h}, back))
	assert.Nil(t, deliver(carol, TransferHandler{h}, back))

	revokeAll := &RevokeAllMsg{Metadata: meta, Registry: registry, Operator: bob.Address()}
	assert.Nil(t, deliver(alice, RevokeAllHandler{h}, revokeAll))
	assert.IsErr(t, errors.ErrNotFound, deliver(alice, RevokeAllHandler{h}, revokeAll))
	assert.IsErr(t, errors.ErrUnauthorized, deliver(bob, TransferHandler{h}, transfer))
}

func TestReceiveRequiresRegistry(t *testing.T) {
	ctx := context.Background()
	registry := RegistryCondition([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	if (Authenticate{}).HasAddress(ctx, registry.Address()) {
		t.Fatal("registry authenticated without notification")
	}
	ctx = withRegistry(ctx, registry)
	if !(Authenticate{}).HasAddress(ctx, registry.Address()) {
		t.Fatal("notifying registry not authenticated")
	}
	other := RegistryCondition([]byte{0, 0, 0, 0, 0, 0, 0, 2})
	if (Authenticate{}).HasAddress(ctx, other.Address()) {
		t.Fatal("other registry authenticated")
	}
}

func TestClientTransfer(t *testing.T) {
	db := store.MemStore()
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()
	registry, tokenID := createToken(t, db, alice)

	client := NewClient()
	err := client.Transfer(db, registry, []byte(tokenID), bob, alice)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, client.Transfer(db, registry, []byte(tokenID), alice, bob))
	holder, err := client.Holder(db, registry, []byte(tokenID))
	assert.Nil(t, err)
	assert.Equal(t, bob, holder)

	_, err = client.Holder(db, registry, []byte("ART.99"))
	assert.IsErr(t, errors.ErrNotFound, err)
}

// createToken stores a registry with a single token owned by given
// address.
func createToken(t testing.TB, db custody.KVStore, owner custody.Address) (custody.Address, string) {
	t.Helper()
	reg := Registry{
		Metadata: &custody.Metadata{Schema: 1},
		ID:       []byte{0, 0, 0, 0, 0, 0, 0, 7},
		Owner:    owner,
		Symbol:   "ART",
	}
	info, err := price.Encode(price.Metadata{Price: price.Descriptor{Denom: "u", Amount: 10}})
	assert.Nil(t, err)
	token := Token{
		Metadata: &custody.Metadata{Schema: 1},
		Registry: reg.Address(),
		ID:       reg.NextTokenID(),
		Owner:    owner,
		Info:     info,
	}
	_, err = NewRegistryBucket().Put(db, reg.Address(), &reg)
	assert.Nil(t, err)
	_, err = NewTokenBucket().Put(db, TokenKey(token.Registry, []byte(token.ID)), &token)
	assert.Nil(t, err)
	return reg.Address(), token.ID
}
