package nft

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/x"
)

type contextKey int // local to the nft module

const (
	contextKeyRegistry contextKey = iota
)

// withRegistry is private so that only a registry can authenticate
// itself, and only while notifying a receiver.
func withRegistry(ctx custody.Context, cond custody.Condition) custody.Context {
	return context.WithValue(ctx, contextKeyRegistry, cond)
}

// Authenticate exposes the condition of the registry that is notifying a
// receiver.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the notifying registry condition if any.
func (Authenticate) GetConditions(ctx custody.Context) []custody.Condition {
	val, _ := ctx.Value(contextKeyRegistry).(custody.Condition)
	if val == nil {
		return nil
	}
	return []custody.Condition{val}
}

// HasAddress returns true if the given address is the notifying registry.
func (a Authenticate) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
