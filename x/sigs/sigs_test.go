package sigs

import (
	"context"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/stretchr/testify/require"
)

// stdTx is a signed transaction carrying raw bytes as its message.
type stdTx struct {
	weavetest.Tx
	payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*stdTx)(nil)

func newStdTx(payload []byte) *stdTx {
	return &stdTx{payload: payload}
}

func (tx *stdTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *stdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

// sigCheckHandler stores the signers seen in the context.
type sigCheckHandler struct {
	Signers []custody.Condition
}

func (s *sigCheckHandler) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &custody.CheckResult{}, nil
}

func (s *sigCheckHandler) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &custody.DeliverResult{}, nil
}

func TestDecorator(t *testing.T) {
	kv := store.MemStore()
	checkKv := kv.CacheWrap()
	signers := new(sigCheckHandler)
	d := NewDecorator()
	chainID := "deco-rate"
	ctx := custody.WithChainID(context.Background(), chainID)

	priv := crypto.GenPrivKeyEd25519()
	perms := []custody.Condition{priv.PublicKey().Condition()}

	tx := newStdTx([]byte("art"))
	sig, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)

	deliver := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Deliver(ctx, kv, my, signers)
		return err
	}
	check := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Check(ctx, checkKv, my, signers)
		return err
	}

	for i, fn := range []func(custody.Decorator, custody.Tx) error{check, deliver} {
		// test with no sigs
		tx.Signatures = nil
		require.Error(t, fn(d, tx), "%d", i)

		// test with one
		tx.Signatures = []*StdSignature{sig}
		require.NoError(t, fn(d, tx), "%d", i)
		require.Equal(t, perms, signers.Signers)

		// test with replay
		err := fn(d, tx)
		require.True(t, ErrInvalidSequence.Is(err), "%d: %v", i, err)

		// test allowing none
		ad := d.AllowMissingSigs()
		tx.Signatures = nil
		require.NoError(t, fn(ad, tx), "%d", i)
		require.Empty(t, signers.Signers)

		// test with next sequence
		tx.Signatures = []*StdSignature{sig1}
		require.NoError(t, fn(d, tx), "%d", i)
		require.Equal(t, perms, signers.Signers)

		// transactions without signatures support pass untouched
		require.NoError(t, fn(d, &weavetest.Tx{}), "%d", i)
	}
}

func TestVerifySignature(t *testing.T) {
	kv := store.MemStore()
	chainID := "emo-music-2345"
	priv := crypto.GenPrivKeyEd25519()
	addr := priv.PublicKey().Address()
	payload := []byte("foobar")

	tx := newStdTx(payload)
	sig0, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)

	// Signature for another chain is rejected.
	other, err := SignTx(priv, tx, "another-chain", 0)
	require.NoError(t, err)
	_, err = VerifySignature(kv, other, payload, chainID)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// Wrong sequence is rejected and nothing is stored.
	_, err = VerifySignature(kv, sig1, payload, chainID)
	assert.IsErr(t, ErrInvalidSequence, err)
	nonce, err := NextNonce(kv, addr)
	require.NoError(t, err)
	require.Equal(t, int64(0), nonce)

	cond, err := VerifySignature(kv, sig0, payload, chainID)
	require.NoError(t, err)
	require.Equal(t, priv.PublicKey().Condition(), cond)

	nonce, err = NextNonce(kv, addr)
	require.NoError(t, err)
	require.Equal(t, int64(1), nonce)

	// Signature is not valid for modified data.
	_, err = VerifySignature(kv, sig1, []byte("foobaz"), chainID)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// Missing parts of the signature.
	_, err = VerifySignature(kv, &StdSignature{Signature: sig1.Signature}, payload, chainID)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = VerifySignature(kv, &StdSignature{Pubkey: sig1.Pubkey}, payload, chainID)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestBuildSignBytes(t *testing.T) {
	a, err := BuildSignBytes([]byte("data"), "test-chain", 1)
	assert.Nil(t, err)
	b, err := BuildSignBytes([]byte("data"), "test-chain", 2)
	assert.Nil(t, err)
	if string(a) == string(b) {
		t.Fatal("sequence must change the sign bytes")
	}
	assert.Equal(t, 64, len(a))

	_, err = BuildSignBytes([]byte("data"), "test-chain", -1)
	assert.IsErr(t, ErrInvalidSequence, err)
	_, err = BuildSignBytes([]byte("data"), "bad", 1)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestUserData(t *testing.T) {
	pub := crypto.GenPrivKeyEd25519().PublicKey()
	u := &UserData{Metadata: &custody.Metadata{Schema: 1}, Pubkey: pub}
	assert.Nil(t, u.Validate())

	assert.IsErr(t, ErrInvalidSequence, u.CheckAndIncrementSequence(3))
	assert.Nil(t, u.CheckAndIncrementSequence(0))
	assert.Equal(t, int64(1), u.Sequence)

	raw, err := proto.Marshal(u)
	assert.Nil(t, err)
	var got UserData
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, u, &got)

	u.Sequence = (1 << 53) - 1
	assert.IsErr(t, errors.ErrOverflow, u.CheckAndIncrementSequence(u.Sequence))

	invalid := &UserData{Metadata: &custody.Metadata{Schema: 1}, Sequence: 2}
	assert.FieldError(t, invalid.Validate(), "Sequence", ErrInvalidSequence)
	assert.FieldError(t, (&UserData{}).Validate(), "Metadata", errors.ErrMetadata)
}
