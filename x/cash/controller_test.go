package cash

import (
	"testing"

	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestController(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()

	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	// Unknown addresses hold nothing.
	balance, err := ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, true, balance.IsEmpty())

	assert.Nil(t, ctrl.CoinMint(db, alice, coin.NewCoin(100, "u")))
	assert.Nil(t, ctrl.CoinMint(db, alice, coin.NewCoin(7, "umed")))

	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(101, "u"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(1, "eth"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(0, "u"))
	assert.IsErr(t, errors.ErrAmount, err)
	err = ctrl.MoveCoins(db, alice, bob, coin.NewCoin(1, "U"))
	assert.IsErr(t, errors.ErrCurrency, err)

	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewCoin(60, "u")))
	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewCoin(7, "umed")))

	balance, err = ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, "40u", balance.String())

	balance, err = ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, "60u, 7umed", balance.String())

	// Moving to self keeps the balance.
	assert.Nil(t, ctrl.MoveCoins(db, bob, bob, coin.NewCoin(60, "u")))
	balance, err = ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, "60u, 7umed", balance.String())

	// An emptied wallet is removed.
	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewCoin(40, "u")))
	assert.IsErr(t, errors.ErrNotFound, NewBucket().Has(db, alice))
}
