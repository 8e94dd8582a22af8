package escrow

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
)

func TestDepositMsgValidation(t *testing.T) {
	source := weavetest.NewCondition().Address()
	cases := map[string]struct {
		msg   *DepositMsg
		field string
		want  *errors.Error
	}{
		"valid": {
			msg: &DepositMsg{
				Metadata: &custody.Metadata{Schema: 1},
				Source:   source,
				Amount:   coin.Coins{coin.NewCoinp(1, "u")},
			},
		},
		"empty amount": {
			msg: &DepositMsg{
				Metadata: &custody.Metadata{Schema: 1},
				Source:   source,
			},
			field: "Amount",
			want:  errors.ErrInput,
		},
		"unsorted amount": {
			msg: &DepositMsg{
				Metadata: &custody.Metadata{Schema: 1},
				Source:   source,
				Amount:   coin.Coins{coin.NewCoinp(1, "umed"), coin.NewCoinp(1, "u")},
			},
			field: "Amount",
			want:  errors.ErrCurrency,
		},
		"missing source": {
			msg: &DepositMsg{
				Metadata: &custody.Metadata{Schema: 1},
				Amount:   coin.Coins{coin.NewCoinp(1, "u")},
			},
			field: "Source",
			want:  errors.ErrInput,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.want == nil {
				assert.Nil(t, err)
				return
			}
			assert.FieldError(t, err, tc.field, tc.want)
		})
	}
}

func TestAssetRefValidation(t *testing.T) {
	registry := weavetest.NewCondition().Address()
	ok := &RecoverMsg{Metadata: &custody.Metadata{Schema: 1}, Registry: registry, AssetID: []byte("ART.1")}
	assert.Nil(t, ok.Validate())

	noAsset := &SettleMsg{Metadata: &custody.Metadata{Schema: 1}, Registry: registry}
	assert.FieldError(t, noAsset.Validate(), "AssetID", errors.ErrEmpty)

	noMeta := &RefundMsg{}
	assert.IsErr(t, errors.ErrMetadata, noMeta.Validate())
}

func TestInstantiateMsgSerialization(t *testing.T) {
	msg := &InstantiateMsg{
		Metadata:   &custody.Metadata{Schema: 1},
		Registries: []custody.Address{weavetest.NewCondition().Address(), weavetest.NewCondition().Address()},
	}
	raw, err := proto.Marshal(msg)
	assert.Nil(t, err)
	var got InstantiateMsg
	assert.Nil(t, proto.Unmarshal(raw, &got))
	assert.Equal(t, msg, &got)

	empty := &InstantiateMsg{Metadata: &custody.Metadata{Schema: 1}}
	assert.FieldError(t, empty.Validate(), "Registries", errors.ErrEmpty)
}
