package utils

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/common"
)

func TestActionTagger(t *testing.T) {
	msg := &weavetest.Msg{RoutePath: "cash/send"}

	cases := map[string]struct {
		handler  *weavetest.Handler
		wantTags []string
	}{
		"path is tagged": {
			handler:  &weavetest.Handler{},
			wantTags: []string{"cash/send"},
		},
		"handler action is kept": {
			handler: &weavetest.Handler{
				DeliverResult: custody.DeliverResult{
					Tags: []common.KVPair{custody.Tag(ActionKey, "receive_nft")},
				},
			},
			wantTags: []string{"receive_nft"},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			h := weavetest.Decorate(tc.handler, NewActionTagger())
			res, err := h.Deliver(context.Background(), store.MemStore(), &weavetest.Tx{Msg: msg})
			require.NoError(t, err)

			var got []string
			for _, tag := range res.Tags {
				if string(tag.Key) == ActionKey {
					got = append(got, string(tag.Value))
				}
			}
			require.Equal(t, tc.wantTags, got)
		})
	}
}
