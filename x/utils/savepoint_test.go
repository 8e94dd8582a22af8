package utils

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestSavepoint(t *testing.T) {
	write := &custody.Model{Key: []byte("key"), Value: []byte("value")}
	failure := errors.ErrState.New("broken")

	cases := map[string]struct {
		savepoint Savepoint
		handler   *weavetest.Handler
		check     bool
		wantErr   *errors.Error
		wantWrite bool
	}{
		"savepoint not active keeps the write on failure": {
			savepoint: NewSavepoint(),
			handler:   &weavetest.Handler{Write: write, CheckErr: failure},
			check:     true,
			wantErr:   errors.ErrState,
			wantWrite: true,
		},
		"check failure is rolled back": {
			savepoint: NewSavepoint().OnCheck(),
			handler:   &weavetest.Handler{Write: write, CheckErr: failure},
			check:     true,
			wantErr:   errors.ErrState,
		},
		"deliver failure is rolled back": {
			savepoint: NewSavepoint().OnDeliver(),
			handler:   &weavetest.Handler{Write: write, DeliverErr: failure},
			wantErr:   errors.ErrState,
		},
		"check savepoint does not affect deliver": {
			savepoint: NewSavepoint().OnCheck(),
			handler:   &weavetest.Handler{Write: write, DeliverErr: failure},
			wantErr:   errors.ErrState,
			wantWrite: true,
		},
		"success is written": {
			savepoint: NewSavepoint().OnCheck().OnDeliver(),
			handler:   &weavetest.Handler{Write: write},
			wantWrite: true,
		},
		"retained failure is written": {
			savepoint: NewSavepoint().OnDeliver(),
			handler:   &weavetest.Handler{Write: write, DeliverErr: errors.Retain(failure)},
			wantErr:   errors.ErrState,
			wantWrite: true,
		},
		"retained check failure is written": {
			savepoint: NewSavepoint().OnCheck(),
			handler:   &weavetest.Handler{Write: write, CheckErr: errors.Retain(failure)},
			check:     true,
			wantErr:   errors.ErrState,
			wantWrite: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctx := context.Background()
			h := weavetest.Decorate(tc.handler, tc.savepoint)

			var err error
			if tc.check {
				_, err = h.Check(ctx, db, &weavetest.Tx{})
			} else {
				_, err = h.Deliver(ctx, db, &weavetest.Tx{})
			}
			assert.IsErr(t, tc.wantErr, err)

			has, err := db.Has(write.Key)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantWrite, has)
		})
	}
}
