package app

import (
	"encoding/json"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/nft"
	"github.com/iov-one/custody/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const chainID = "test-escrow-1"

type account struct {
	pk *crypto.PrivateKey
	n  int64
}

func newAccount() *account {
	return &account{pk: crypto.GenPrivKeyEd25519()}
}

func (a *account) nonce() (n int64) {
	n = a.n
	a.n++
	return
}

func (a *account) address() custody.Address {
	return a.pk.PublicKey().Address()
}

type testApp struct {
	t      *testing.T
	app    app.BaseApp
	height int64
}

// newTestApp creates a new app where the payer owns the genesis funds.
func newTestApp(t *testing.T, payer *account) *testApp {
	abciApp, err := GenerateApp("", log.NewNopLogger(), true)
	require.NoError(t, err)
	myApp := abciApp.(app.BaseApp)

	state, err := GenInitOptions([]string{"-funds", "1000u", payer.address().String()})
	require.NoError(t, err)

	// Commit first block, make sure non-nil hash
	myApp.InitChain(abci.RequestInitChain{AppStateBytes: state, ChainId: chainID})
	myApp.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1}})
	myApp.EndBlock(abci.RequestEndBlock{})
	cres := myApp.Commit()
	assert.NotEmpty(t, cres.Data)
	assert.Equal(t, chainID, myApp.GetChainID())

	return &testApp{t: t, app: myApp, height: 1}
}

// signedTx builds the transaction bytes for a message signed by given
// account.
func (a *testApp) signedTx(signer *account, msg custody.Msg) []byte {
	tx := &Tx{}
	require.NoError(a.t, tx.SetMsg(msg))
	sig, err := sigs.SignTx(signer.pk, tx, chainID, signer.nonce())
	require.NoError(a.t, err)
	tx.Signatures = []*sigs.StdSignature{sig}
	raw, err := proto.Marshal(tx)
	require.NoError(a.t, err)
	return raw
}

// deliver runs the transaction through check and deliver in its own
// block.
func (a *testApp) deliver(signer *account, msg custody.Msg) abci.ResponseDeliverTx {
	raw := a.signedTx(signer, msg)

	chres := a.app.CheckTx(raw)
	require.Equal(a.t, uint32(0), chres.Code, chres.Log)

	a.height++
	a.app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: a.height}})
	dres := a.app.DeliverTx(raw)
	a.app.EndBlock(abci.RequestEndBlock{})
	a.app.Commit()
	return dres
}

func (a *testApp) mustDeliver(signer *account, msg custody.Msg) abci.ResponseDeliverTx {
	res := a.deliver(signer, msg)
	require.Equal(a.t, uint32(0), res.Code, res.Log)
	return res
}

func (a *testApp) query(path string, data []byte, dest custody.Persistent) {
	res := a.app.Query(abci.RequestQuery{Path: path, Data: data})
	require.Equal(a.t, uint32(0), res.Code, res.Log)
	require.NoError(a.t, app.UnmarshalOneResult(res.Value, dest))
}

func (a *testApp) balance(addr custody.Address) uint64 {
	var set cash.Set
	a.query("/wallets", addr, &set)
	return set.Coins.Amount("u")
}

func (a *testApp) owner(registry custody.Address, id string) custody.Address {
	var token nft.Token
	a.query("/nft/tokens", nft.TokenKey(registry, []byte(id)), &token)
	return token.Owner
}

// setup creates a registry trusted by the escrow and mints one token
// priced 100u for the seller.
func setup(t *testing.T) (a *testApp, payer, seller *account, registry custody.Address, tokenID string) {
	payer = newAccount()
	seller = newAccount()
	artist := newAccount()
	a = newTestApp(t, payer)
	meta := &custody.Metadata{Schema: 1}

	res := a.mustDeliver(artist, &nft.CreateRegistryMsg{Metadata: meta, Symbol: "ART", Name: "Artworks"})
	registry = custody.Address(res.Data)

	a.mustDeliver(payer, &escrow.InstantiateMsg{Metadata: meta, Registries: []custody.Address{registry}})

	res = a.mustDeliver(artist, &nft.MintMsg{
		Metadata:    meta,
		Registry:    registry,
		Owner:       seller.address(),
		Description: "sunset",
		Price:       coin.NewCoinp(100, "u"),
	})
	tokenID = string(res.Data)
	return a, payer, seller, registry, tokenID
}

func TestSignedSwap(t *testing.T) {
	a, payer, seller, registry, tokenID := setup(t)
	meta := &custody.Metadata{Schema: 1}

	a.mustDeliver(payer, &escrow.DepositMsg{
		Metadata: meta,
		Source:   payer.address(),
		Amount:   coin.Coins{coin.NewCoinp(150, "u")},
	})
	assert.Equal(t, uint64(850), a.balance(payer.address()))
	assert.Equal(t, uint64(150), a.balance(escrow.Custodian()))

	res := a.mustDeliver(seller, &nft.SendMsg{
		Metadata: meta,
		Registry: registry,
		TokenID:  tokenID,
		Receiver: escrow.Custodian(),
	})

	var batch escrow.Batch
	require.NoError(t, proto.Unmarshal(res.Data, &batch))
	assert.Equal(t, 2, len(batch.Instructions))

	assert.Equal(t, uint64(100), a.balance(seller.address()))
	assert.Equal(t, uint64(50), a.balance(escrow.Custodian()))
	assert.Equal(t, payer.address(), a.owner(registry, tokenID))

	var conf escrow.Config
	a.query("/escrow/config", nil, &conf)
	assert.Equal(t, payer.address(), conf.Payer)

	// Nothing stays in escrow after settlement.
	res2 := a.app.Query(abci.RequestQuery{Path: "/escrow/assets?prefix"})
	require.Equal(t, uint32(0), res2.Code, res2.Log)
	var set custody.ResultSet
	require.NoError(t, proto.Unmarshal(res2.Value, &set))
	assert.Empty(t, set.Results)

	// The remaining deposit goes back to the payer.
	a.mustDeliver(payer, &escrow.RefundMsg{Metadata: meta})
	assert.Equal(t, uint64(900), a.balance(payer.address()))
}

func TestSignedSwapWaitsForFunds(t *testing.T) {
	a, payer, seller, registry, tokenID := setup(t)
	meta := &custody.Metadata{Schema: 1}

	res := a.deliver(seller, &nft.SendMsg{
		Metadata: meta,
		Registry: registry,
		TokenID:  tokenID,
		Receiver: escrow.Custodian(),
	})
	assert.Equal(t, escrow.ErrInsufficientFunds.ABCICode(), res.Code, res.Log)

	// The failed delivery still leaves the token in custody.
	assert.Equal(t, escrow.Custodian(), a.owner(registry, tokenID))
	var asset escrow.EscrowedAsset
	a.query("/escrow/assets", escrow.AssetKey(registry, []byte(tokenID)), &asset)
	assert.Equal(t, seller.address(), asset.Depositor)

	a.mustDeliver(payer, &escrow.DepositMsg{
		Metadata: meta,
		Source:   payer.address(),
		Amount:   coin.Coins{coin.NewCoinp(100, "u")},
	})
	a.mustDeliver(seller, &escrow.SettleMsg{Metadata: meta, Registry: registry, AssetID: []byte(tokenID)})

	assert.Equal(t, uint64(100), a.balance(seller.address()))
	assert.Equal(t, payer.address(), a.owner(registry, tokenID))
}

func TestTransferToCustodianRejected(t *testing.T) {
	a, _, seller, registry, tokenID := setup(t)
	raw := a.signedTx(seller, &nft.TransferMsg{
		Metadata:  &custody.Metadata{Schema: 1},
		Registry:  registry,
		TokenID:   tokenID,
		Recipient: escrow.Custodian(),
	})
	res := a.app.CheckTx(raw)
	assert.Equal(t, errors.ErrInput.ABCICode(), res.Code, res.Log)
	assert.Equal(t, seller.address(), a.owner(registry, tokenID))
}

func TestReceiveCannotBeSubmitted(t *testing.T) {
	err := (&Tx{}).SetMsg(&nft.ReceiveMsg{})
	assert.True(t, errors.ErrType.Is(err))
}

func TestTxCarriesOneMessage(t *testing.T) {
	meta := &custody.Metadata{Schema: 1}
	tx := &Tx{}
	require.NoError(t, tx.SetMsg(&escrow.RefundMsg{Metadata: meta}))
	require.NoError(t, tx.SetMsg(&nft.RevokeAllMsg{Metadata: meta}))
	msg, err := tx.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, &nft.RevokeAllMsg{Metadata: meta}, msg)
	assert.Nil(t, tx.RefundMsg)

	tx.RefundMsg = &escrow.RefundMsg{Metadata: meta}
	_, err = tx.GetMsg()
	assert.True(t, errors.ErrMsg.Is(err))
}

func TestTxRoundTrip(t *testing.T) {
	signer := newAccount()
	tx := &Tx{}
	require.NoError(t, tx.SetMsg(&escrow.RefundMsg{Metadata: &custody.Metadata{Schema: 1}}))
	sig, err := sigs.SignTx(signer.pk, tx, chainID, 3)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}

	raw, err := proto.Marshal(tx)
	require.NoError(t, err)
	got, err := TxDecoder(raw)
	require.NoError(t, err)

	decoded := got.(*Tx)
	want, err := tx.GetMsg()
	require.NoError(t, err)
	msg, err := decoded.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, want, msg)
	require.Equal(t, 1, len(decoded.Signatures))
	assert.Equal(t, int64(3), decoded.Signatures[0].Sequence)

	// Signatures are not part of the signed bytes.
	unsigned, err := tx.GetSignBytes()
	require.NoError(t, err)
	signBytes, err := decoded.GetSignBytes()
	require.NoError(t, err)
	assert.Equal(t, unsigned, signBytes)

	_, err = TxDecoder(nil)
	require.NoError(t, err)
	_, err = (&Tx{}).GetMsg()
	assert.Error(t, err)
}

func TestGenInitOptions(t *testing.T) {
	payer := newAccount().address()
	registry := newAccount().address()
	raw, err := GenInitOptions([]string{payer.String(), registry.String()})
	require.NoError(t, err)

	var state struct {
		Cash []cash.GenesisAccount `json:"cash"`
		Conf struct {
			Escrow escrow.Config `json:"escrow"`
		} `json:"conf"`
	}
	require.NoError(t, json.Unmarshal(raw, &state))
	require.Equal(t, 1, len(state.Cash))
	assert.Equal(t, payer, state.Cash[0].Address)
	assert.Equal(t, []coin.Coin{coin.NewCoin(123456789, "u")}, state.Cash[0].Coins)
	assert.Equal(t, payer, state.Conf.Escrow.Payer)
	assert.Equal(t, []custody.Address{registry}, state.Conf.Escrow.Registries)

	// Without registries the escrow is left to be instantiated.
	raw, err = GenInitOptions([]string{payer.String()})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "conf")

	_, err = GenInitOptions([]string{"-funds", "lots", payer.String()})
	assert.Error(t, err)
	_, err = GenInitOptions([]string{"not-hex"})
	assert.Error(t, err)
}
