/*
Package coin implements the currency amounts handled by the ledger. A Coin
is a non-negative integer quantity of a single denomination, for example
100u or 2500umed.
*/
package coin

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/iov-one/custody/errors"
)

// IsDenom returns true if given string is a valid denomination: lower case
// letters and digits, starting with a letter, at most 16 characters.
var IsDenom = regexp.MustCompile(`^[a-z][a-z0-9]{0,15}$`).MatchString

var coinFormat = regexp.MustCompile(`^([0-9]+)\s*([a-z][a-z0-9]{0,15})$`)

// Coin is an amount of a single denomination.
type Coin struct {
	Denom  string `protobuf:"bytes,1,opt,name=denom,proto3" json:"denom"`
	Amount uint64 `protobuf:"varint,2,opt,name=amount,proto3" json:"amount"`
}

func (c *Coin) Reset()      { *c = Coin{} }
func (*Coin) ProtoMessage() {}

// NewCoin returns a coin of given amount and denomination.
func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount uint64, denom string) *Coin {
	c := NewCoin(amount, denom)
	return &c
}

// ParseCoin decodes a coin from its String representation, for example
// "100u".
func ParseCoin(s string) (Coin, error) {
	m := coinFormat.FindStringSubmatch(s)
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin %q", s)
	}
	amount, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "amount %q", m[1])
	}
	return NewCoin(amount, m[2]), nil
}

// String returns a human readable representation, for example "100u".
func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

// Validate returns an error if the denomination is invalid.
func (c Coin) Validate() error {
	if !IsDenom(c.Denom) {
		return errors.Wrapf(errors.ErrCurrency, "invalid denomination %q", c.Denom)
	}
	return nil
}

// IsZero returns true if the amount is zero.
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// IsPositive returns true if the amount is greater than zero.
func (c Coin) IsPositive() bool {
	return c.Amount > 0
}

// SameType returns true if both coins are of the same denomination.
func (c Coin) SameType(o Coin) bool {
	return c.Denom == o.Denom
}

// Equals returns true if both coins are identical.
func (c Coin) Equals(o Coin) bool {
	return c == o
}

// IsGTE returns true if c is of the same denomination as o and its amount
// is greater or equal.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// Add returns the sum of two coins of the same denomination.
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Denom, c.Denom)
	}
	if o.Amount > math.MaxUint64-c.Amount {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%s + %s", c, o)
	}
	return NewCoin(c.Amount+o.Amount, c.Denom), nil
}

// Subtract returns c minus o. Going below zero is not allowed.
func (c Coin) Subtract(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "subtracting %s from %s", o.Denom, c.Denom)
	}
	if o.Amount > c.Amount {
		return Coin{}, errors.Wrapf(errors.ErrInsufficientAmount, "%s - %s", c, o)
	}
	return NewCoin(c.Amount-o.Amount, c.Denom), nil
}
