package cash

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Controller is the functionality of the currency ledger other extensions
// can use.
type Controller interface {
	// Balance returns all coins owned by given address. An unknown
	// address owns nothing.
	Balance(db custody.ReadOnlyKVStore, owner custody.Address) (coin.Coins, error)

	// MoveCoins moves the given amount from src to dest. If src does not
	// hold sufficient coins, it fails.
	MoveCoins(db custody.KVStore, src, dest custody.Address, amount coin.Coin) error

	// CoinMint issues new coins to given address.
	CoinMint(db custody.KVStore, dest custody.Address, amount coin.Coin) error
}

// BaseController is the wallet bucket backed implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller over the wallet bucket.
func NewController() BaseController {
	return BaseController{bucket: NewBucket()}
}

func (c BaseController) load(db custody.ReadOnlyKVStore, owner custody.Address) (*Set, error) {
	var w Set
	switch err := c.bucket.One(db, owner, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Set{Metadata: &custody.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "load wallet")
	}
}

func (c BaseController) save(db custody.KVStore, owner custody.Address, w *Set) error {
	if len(w.Coins) == 0 {
		err := c.bucket.Delete(db, owner)
		if errors.ErrNotFound.Is(err) {
			return nil
		}
		return err
	}
	_, err := c.bucket.Put(db, owner, w)
	return err
}

// Balance implements Controller.
func (c BaseController) Balance(db custody.ReadOnlyKVStore, owner custody.Address) (coin.Coins, error) {
	w, err := c.load(db, owner)
	if err != nil {
		return nil, err
	}
	return w.Coins, nil
}

// MoveCoins implements Controller.
func (c BaseController) MoveCoins(db custody.KVStore, src, dest custody.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %s", amount)
	}

	sender, err := c.load(db, src)
	if err != nil {
		return err
	}
	if !sender.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %d%s, want %s",
			src, sender.Coins.Amount(amount.Denom), amount.Denom, amount)
	}
	if sender.Coins, err = sender.Coins.Subtract(amount); err != nil {
		return err
	}
	if err := c.save(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}

	// Loading the recipient after the sender is saved keeps a transfer
	// to self consistent.
	recipient, err := c.load(db, dest)
	if err != nil {
		return err
	}
	if recipient.Coins, err = recipient.Coins.Add(amount); err != nil {
		return err
	}
	return errors.Wrap(c.save(db, dest, recipient), "save recipient")
}

// CoinMint implements Controller.
func (c BaseController) CoinMint(db custody.KVStore, dest custody.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	w, err := c.load(db, dest)
	if err != nil {
		return err
	}
	if w.Coins, err = w.Coins.Add(amount); err != nil {
		return err
	}
	return c.save(db, dest, w)
}
