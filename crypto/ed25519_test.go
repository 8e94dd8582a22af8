package crypto

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestSignVerify(t *testing.T) {
	priv := GenPrivKeyEd25519()
	pub := priv.PublicKey()
	assert.Nil(t, pub.Validate())

	msg := []byte("release asset")
	sig, err := priv.Sign(msg)
	assert.Nil(t, err)

	if !pub.Verify(msg, sig) {
		t.Fatal("valid signature rejected")
	}
	if pub.Verify([]byte("release funds"), sig) {
		t.Fatal("signature accepted for another message")
	}
	other := GenPrivKeyEd25519().PublicKey()
	if other.Verify(msg, sig) {
		t.Fatal("signature accepted for another key")
	}
	if pub.Verify(msg, nil) {
		t.Fatal("nil signature accepted")
	}
}

func TestDeterministicKeys(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7
	a := PrivKeyEd25519FromSeed(seed).PublicKey()
	b := PrivKeyEd25519FromSeed(seed).PublicKey()
	assert.Equal(t, a.Address(), b.Address())
	assert.Nil(t, a.Address().Validate())
	assert.Nil(t, a.Condition().Validate())
}

func TestKeySerialization(t *testing.T) {
	priv := GenPrivKeyEd25519()
	raw, err := proto.Marshal(priv)
	assert.Nil(t, err)

	var got PrivateKey
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, priv.Ed25519, got.Ed25519)

	sig, err := got.Sign([]byte("x"))
	assert.Nil(t, err)
	raw, err = proto.Marshal(sig)
	assert.Nil(t, err)
	var gotSig Signature
	assert.Nil(t, proto.Unmarshal(raw, &gotSig))
	if !priv.PublicKey().Verify([]byte("x"), &gotSig) {
		t.Fatal("decoded signature is not valid")
	}
}
