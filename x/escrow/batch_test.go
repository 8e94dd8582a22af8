package escrow

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/nft"
)

func TestBatchKeepsOrder(t *testing.T) {
	registry := nft.RegistryCondition([]byte{1}).Address()
	a := weavetest.NewCondition().Address()
	b := weavetest.NewCondition().Address()

	batch := NewBatch(
		&RegistryTransfer{Registry: registry, AssetID: []byte("ART.1"), NewOwner: a},
		&CurrencyTransfer{To: b, Amount: coin.Coins{coin.NewCoinp(5, "u"), coin.NewCoinp(1, "umed")}},
		&RegistryTransfer{Registry: registry, AssetID: []byte("ART.2"), NewOwner: b},
	)
	raw, err := proto.Marshal(batch)
	assert.Nil(t, err)

	var got Batch
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, batch, &got)

	list, err := got.List()
	assert.Nil(t, err)
	assert.Equal(t, 3, len(list))
	if _, ok := list[1].(*CurrencyTransfer); !ok {
		t.Fatalf("want currency transfer second, got %T", list[1])
	}
}

func TestBatchInstructionHoldsOneTransfer(t *testing.T) {
	registry := nft.RegistryCondition([]byte{1}).Address()
	to := weavetest.NewCondition().Address()

	cases := map[string]struct {
		in      *BatchInstruction
		wantErr *errors.Error
	}{
		"currency": {
			in:      &BatchInstruction{Currency: &CurrencyTransfer{To: to}},
			wantErr: nil,
		},
		"registry": {
			in:      &BatchInstruction{Registry: &RegistryTransfer{Registry: registry}},
			wantErr: nil,
		},
		"none": {
			in:      &BatchInstruction{},
			wantErr: errors.ErrType,
		},
		"both": {
			in: &BatchInstruction{
				Currency: &CurrencyTransfer{To: to},
				Registry: &RegistryTransfer{Registry: registry},
			},
			wantErr: errors.ErrType,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := tc.in.Get()
			assert.IsErr(t, tc.wantErr, err)

			batch := &Batch{Instructions: []*BatchInstruction{tc.in}}
			_, err = batch.List()
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestBatchWireFormat(t *testing.T) {
	to := custody.Address{0xaa}
	raw, err := proto.Marshal(NewBatch(&CurrencyTransfer{To: to}))
	assert.Nil(t, err)

	// instructions (1) holding a currency transfer (1) holding the
	// recipient (1).
	want := []byte{0x0a, 0x05, 0x0a, 0x03, 0x0a, 0x01, 0xaa}
	assert.Equal(t, want, raw)
}

func TestExecuteIsAtomic(t *testing.T) {
	db := store.MemStore()
	bank := cash.NewController()
	custodian := Custodian()
	seller := weavetest.NewCondition().Address()
	payer := weavetest.NewCondition().Address()
	registry := nft.RegistryCondition([]byte{1}).Address()

	assert.Nil(t, bank.CoinMint(db, custodian, coin.NewCoin(10, "u")))
	exec := NewExecutor(bank, nft.NewClient())

	// The payment succeeds, but the token does not exist. Nothing can be
	// written.
	batch := NewBatch(
		&CurrencyTransfer{To: seller, Amount: coin.Coins{coin.NewCoinp(10, "u")}},
		&RegistryTransfer{Registry: registry, AssetID: []byte("ART.1"), NewOwner: payer},
	)
	err := exec.Execute(db, custodian, batch)
	assert.IsErr(t, errors.ErrNotFound, err)

	balance, err := bank.Balance(db, custodian)
	assert.Nil(t, err)
	assert.Equal(t, uint64(10), balance.Amount("u"))
	balance, err = bank.Balance(db, seller)
	assert.Nil(t, err)
	assert.Equal(t, true, balance.IsEmpty())
}

func TestExecuteRejectsInvalidBatch(t *testing.T) {
	exec := NewExecutor(cash.NewController(), nft.NewClient())
	batch := NewBatch(&CurrencyTransfer{To: weavetest.NewCondition().Address()})
	err := exec.Execute(store.MemStore(), Custodian(), batch)
	assert.IsErr(t, errors.ErrAmount, err)

	batch = NewBatch(&RegistryTransfer{Registry: custody.Address{1}, AssetID: []byte("x")})
	err = exec.Execute(store.MemStore(), Custodian(), batch)
	assert.IsErr(t, errors.ErrInput, err)
}
