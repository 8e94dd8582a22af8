package escrow

import (
	"context"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/price"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/weavetest"
	"github.com/iov-one/custody/weavetest/assert"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/nft"
	"github.com/iov-one/custody/x/utils"
)

// swapApp wires the registry, the currency ledger and the escrow the same
// way the application does.
type swapApp struct {
	t       *testing.T
	db      custody.CacheableKVStore
	sigs    *weavetest.CtxAuth
	bank    cash.BaseController
	handler custody.Handler
}

func newSwapApp(t *testing.T) *swapApp {
	sigs := &weavetest.CtxAuth{Key: "sigs"}
	bank := cash.NewController()
	router := app.NewRouter()
	nft.RegisterRoutes(router, sigs, router, Custodian())
	RegisterRoutes(router, x.ChainAuth(sigs, nft.Authenticate{}), bank, nft.NewClient())
	return &swapApp{
		t:    t,
		db:   store.MemStore(),
		sigs: sigs,
		bank: bank,
		handler: app.ChainDecorators(
			utils.NewActionTagger(),
			utils.NewSavepoint().OnCheck().OnDeliver(),
		).WithHandler(router),
	}
}

func (a *swapApp) deliver(signer custody.Condition, msg custody.Msg) (*custody.DeliverResult, error) {
	a.t.Helper()
	ctx := a.sigs.SetConditions(context.Background(), signer)
	tx := &weavetest.Tx{Msg: msg}
	if _, err := a.handler.Check(ctx, a.db.CacheWrap(), tx); err != nil {
		return nil, err
	}
	return a.handler.Deliver(ctx, a.db, tx)
}

func (a *swapApp) balance(addr custody.Address) uint64 {
	a.t.Helper()
	coins, err := a.bank.Balance(a.db, addr)
	assert.Nil(a.t, err)
	return coins.Amount("u")
}

func (a *swapApp) holder(registry custody.Address, id string) custody.Address {
	a.t.Helper()
	h, err := nft.NewClient().Holder(a.db, registry, []byte(id))
	assert.Nil(a.t, err)
	return h
}

func TestSwapThroughRegistry(t *testing.T) {
	a := newSwapApp(t)
	artist := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	seller := weavetest.NewCondition()
	meta := &custody.Metadata{Schema: 1}

	res, err := a.deliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "ART"})
	assert.Nil(t, err)
	registry := custody.Address(res.Data)

	_, err = a.deliver(payer, &InstantiateMsg{Metadata: meta, Registries: []custody.Address{registry}})
	assert.Nil(t, err)
	_, err = a.deliver(seller, &InstantiateMsg{Metadata: meta, Registries: []custody.Address{registry}})
	assert.IsErr(t, errors.ErrDuplicate, err)

	res, err = a.deliver(artist, &nft.MintMsg{
		Metadata: meta,
		Registry: registry,
		Owner:    seller.Address(),
		Price:    coin.NewCoinp(100, "u"),
	})
	assert.Nil(t, err)
	tokenID := string(res.Data)

	assert.Nil(t, a.bank.CoinMint(a.db, payer.Address(), coin.NewCoin(150, "u")))
	_, err = a.deliver(payer, &DepositMsg{Metadata: meta, Source: payer.Address(), Amount: coin.Coins{coin.NewCoinp(99, "u")}})
	assert.Nil(t, err)

	send := &nft.SendMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Receiver: Custodian()}
	_, err = a.deliver(seller, send)
	assert.IsErr(t, ErrInsufficientFunds, err)

	// The token stays with the custodian and the asset is recorded.
	assert.Equal(t, Custodian(), a.holder(registry, tokenID))
	asset, err := NewLedger().Get(a.db, registry, []byte(tokenID))
	assert.Nil(t, err)
	assert.Equal(t, seller.Address(), asset.Depositor)

	_, err = a.deliver(payer, &DepositMsg{Metadata: meta, Source: payer.Address(), Amount: coin.Coins{coin.NewCoinp(1, "u")}})
	assert.Nil(t, err)

	res, err = a.deliver(seller, &SettleMsg{Metadata: meta, Registry: registry, AssetID: []byte(tokenID)})
	assert.Nil(t, err)

	var batch Batch
	assert.Nil(t, proto.Unmarshal(res.Data, &batch))
	assert.Equal(t, 2, len(batch.Instructions))
	if batch.Instructions[0].Currency == nil {
		t.Fatalf("currency transfer must come first, got %s", batch.Instructions[0])
	}
	assert.Equal(t, "settle_asset", string(res.Tags[0].Value))

	assert.Equal(t, uint64(0), a.balance(Custodian()))
	assert.Equal(t, uint64(100), a.balance(seller.Address()))
	assert.Equal(t, uint64(50), a.balance(payer.Address()))
	assert.Equal(t, payer.Address(), a.holder(registry, tokenID))
	_, err = NewLedger().Get(a.db, registry, []byte(tokenID))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestSendSettlesImmediately(t *testing.T) {
	a := newSwapApp(t)
	artist := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	seller := weavetest.NewCondition()
	meta := &custody.Metadata{Schema: 1}

	res, err := a.deliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "ART"})
	assert.Nil(t, err)
	registry := custody.Address(res.Data)
	_, err = a.deliver(payer, &InstantiateMsg{Metadata: meta, Registries: []custody.Address{registry}})
	assert.Nil(t, err)
	res, err = a.deliver(artist, &nft.MintMsg{Metadata: meta, Registry: registry, Owner: seller.Address(), Price: coin.NewCoinp(30, "u")})
	assert.Nil(t, err)
	tokenID := string(res.Data)
	assert.Nil(t, a.bank.CoinMint(a.db, Custodian(), coin.NewCoin(30, "u")))

	res, err = a.deliver(seller, &nft.SendMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Receiver: Custodian()})
	assert.Nil(t, err)

	tags := make(map[string]string)
	for _, tag := range res.Tags {
		tags[string(tag.Key)] = string(tag.Value)
	}
	assert.Equal(t, "receive_asset", tags["action"])
	assert.Equal(t, tokenID, tags["asset_id"])
	assert.Equal(t, seller.Address().String(), tags["sender"])
	assert.Equal(t, "30u", tags["price"])

	assert.Equal(t, uint64(30), a.balance(seller.Address()))
	assert.Equal(t, payer.Address(), a.holder(registry, tokenID))
}

func TestRejectedSendIsReverted(t *testing.T) {
	a := newSwapApp(t)
	artist := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	seller := weavetest.NewCondition()
	meta := &custody.Metadata{Schema: 1}

	res, err := a.deliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "ART"})
	assert.Nil(t, err)
	trusted := custody.Address(res.Data)
	res, err = a.deliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "FAKE"})
	assert.Nil(t, err)
	untrusted := custody.Address(res.Data)
	_, err = a.deliver(payer, &InstantiateMsg{Metadata: meta, Registries: []custody.Address{trusted}})
	assert.Nil(t, err)

	// A token with a price that cannot be read.
	broken := nft.Token{
		Metadata: meta,
		Registry: trusted,
		ID:       "ART.7",
		Owner:    seller.Address(),
		Info:     []byte("price on request"),
	}
	_, err = nft.NewTokenBucket().Put(a.db, nft.TokenKey(trusted, []byte("ART.7")), &broken)
	assert.Nil(t, err)
	_, err = a.deliver(seller, &nft.SendMsg{Metadata: meta, Registry: trusted, TokenID: "ART.7", Receiver: Custodian()})
	assert.IsErr(t, price.ErrMalformedPrice, err)
	assert.Equal(t, seller.Address(), a.holder(trusted, "ART.7"))
	_, err = NewLedger().Get(a.db, trusted, []byte("ART.7"))
	assert.IsErr(t, errors.ErrNotFound, err)

	res, err = a.deliver(artist, &nft.MintMsg{Metadata: meta, Registry: untrusted, Owner: seller.Address(), Price: coin.NewCoinp(1, "u")})
	assert.Nil(t, err)
	fakeID := string(res.Data)
	_, err = a.deliver(seller, &nft.SendMsg{Metadata: meta, Registry: untrusted, TokenID: fakeID, Receiver: Custodian()})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, seller.Address(), a.holder(untrusted, fakeID))

	// Notifications cannot be forged by signing them.
	_, err = a.deliver(seller, &nft.ReceiveMsg{
		Metadata: meta,
		Registry: trusted,
		TokenID:  "ART.7",
		Sender:   seller.Address(),
		Receiver: Custodian(),
	})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assets, err := NewLedger().List(a.db, nil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(assets))
}

func TestRecoverAndRefundHandlers(t *testing.T) {
	a := newSwapApp(t)
	artist := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	seller := weavetest.NewCondition()
	meta := &custody.Metadata{Schema: 1}

	res, err := a.deliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "ART"})
	assert.Nil(t, err)
	registry := custody.Address(res.Data)
	_, err = a.deliver(payer, &InstantiateMsg{Metadata: meta, Registries: []custody.Address{registry}})
	assert.Nil(t, err)
	res, err = a.deliver(artist, &nft.MintMsg{Metadata: meta, Registry: registry, Owner: seller.Address(), Price: coin.NewCoinp(100, "u")})
	assert.Nil(t, err)
	tokenID := string(res.Data)

	_, err = a.deliver(seller, &nft.SendMsg{Metadata: meta, Registry: registry, TokenID: tokenID, Receiver: Custodian()})
	assert.IsErr(t, ErrInsufficientFunds, err)

	recoverMsg := &RecoverMsg{Metadata: meta, Registry: registry, AssetID: []byte(tokenID)}
	_, err = a.deliver(artist, recoverMsg)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	res, err = a.deliver(payer, recoverMsg)
	assert.Nil(t, err)
	var batch Batch
	assert.Nil(t, proto.Unmarshal(res.Data, &batch))
	assert.Equal(t, 1, len(batch.Instructions))
	assert.Equal(t, seller.Address(), a.holder(registry, tokenID))
	_, err = a.deliver(payer, recoverMsg)
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = a.deliver(payer, &DepositMsg{Metadata: meta, Source: payer.Address()})
	assert.IsErr(t, errors.ErrInput, err)

	assert.Nil(t, a.bank.CoinMint(a.db, seller.Address(), coin.NewCoin(50, "u")))
	_, err = a.deliver(payer, &DepositMsg{Metadata: meta, Source: seller.Address(), Amount: coin.Coins{coin.NewCoinp(50, "u")}})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = a.deliver(seller, &DepositMsg{Metadata: meta, Source: seller.Address(), Amount: coin.Coins{coin.NewCoinp(50, "u")}})
	assert.Nil(t, err)

	_, err = a.deliver(seller, &RefundMsg{Metadata: meta})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = a.deliver(payer, &RefundMsg{Metadata: meta})
	assert.Nil(t, err)
	assert.Equal(t, uint64(50), a.balance(payer.Address()))
	assert.Equal(t, uint64(0), a.balance(Custodian()))
}

func TestHandlersRequireConfig(t *testing.T) {
	a := newSwapApp(t)
	payer := weavetest.NewCondition()
	meta := &custody.Metadata{Schema: 1}
	_, err := a.deliver(payer, &RefundMsg{Metadata: meta})
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestConfigQuery(t *testing.T) {
	db := store.MemStore()
	qr := custody.NewQueryRouter()
	RegisterQuery(qr)
	h := qr.Handler("/escrow/config")

	models, err := h.Query(db, custody.KeyQueryMod, nil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(models))

	payer := weavetest.NewCondition().Address()
	registry := weavetest.NewCondition().Address()
	assert.Nil(t, SaveConfig(db, NewConfig(payer, []custody.Address{registry})))

	models, err = h.Query(db, custody.KeyQueryMod, nil)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(models))
	var conf Config
	assert.Nil(t, proto.Unmarshal(models[0].Value, &conf))
	assert.Equal(t, payer, conf.Payer)
	assert.Equal(t, true, conf.IsTrusted(registry))

	_, err = h.Query(db, custody.PrefixQueryMod, nil)
	assert.IsErr(t, errors.ErrInput, err)
}
