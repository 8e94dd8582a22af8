package coin

import (
	"sort"
	"strings"

	"github.com/iov-one/custody/errors"
)

// Coins is a set of coins of different denominations. A normalized set is
// sorted by denomination, holds each denomination once and contains no
// zero amounts.
type Coins []*Coin

// CombineCoins creates a Coins containing all given coins. It will sort
// them and combine duplicates to produce a normalized set.
func CombineCoins(cs ...Coin) (Coins, error) {
	var res Coins
	for _, c := range cs {
		var err error
		if res, err = res.Add(c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Validate requires that all coins are valid, positive and that the set is
// normalized.
func (cs Coins) Validate() error {
	for i, c := range cs {
		if c == nil {
			return errors.Wrapf(errors.ErrAmount, "nil coin at %d", i)
		}
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "coin %d", i)
		}
		if !c.IsPositive() {
			return errors.Wrapf(errors.ErrAmount, "coin %d: %s is not positive", i, c)
		}
		if i > 0 && cs[i-1].Denom >= c.Denom {
			return errors.Wrap(errors.ErrCurrency, "coins must be sorted by unique denomination")
		}
	}
	return nil
}

// IsEmpty returns true if there are no coins.
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// Amount returns the held amount of given denomination.
func (cs Coins) Amount(denom string) uint64 {
	for _, c := range cs {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return 0
}

// Contains returns true if the set holds at least the given amount.
func (cs Coins) Contains(c Coin) bool {
	return cs.Amount(c.Denom) >= c.Amount
}

// Clone returns a deep copy.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		cp := *c
		res[i] = &cp
	}
	return res
}

// Add returns a new set with given coin added. The receiver is not modified.
func (cs Coins) Add(c Coin) (Coins, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	res := cs.Clone()
	if c.IsZero() {
		return res, nil
	}
	for _, have := range res {
		if have.SameType(c) {
			sum, err := have.Add(c)
			if err != nil {
				return nil, err
			}
			*have = sum
			return res, nil
		}
	}
	res = append(res, &c)
	sort.Slice(res, func(i, j int) bool { return res[i].Denom < res[j].Denom })
	return res, nil
}

// Subtract returns a new set with given coin removed. Zero amounts are
// dropped. ErrInsufficientAmount is returned if the set does not hold
// enough.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	res := cs.Clone()
	if c.IsZero() {
		return res, nil
	}
	for i, have := range res {
		if !have.SameType(c) {
			continue
		}
		diff, err := have.Subtract(c)
		if err != nil {
			return nil, err
		}
		if diff.IsZero() {
			return append(res[:i], res[i+1:]...), nil
		}
		*have = diff
		return res, nil
	}
	return nil, errors.Wrapf(errors.ErrInsufficientAmount, "no %s held", c.Denom)
}

// String returns a human readable representation, for example "5u, 10umed".
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Equals returns true if both sets hold the same coins.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if *cs[i] != *o[i] {
			return false
		}
	}
	return true
}
