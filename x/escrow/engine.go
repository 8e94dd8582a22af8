package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/price"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
)

// Notification informs the escrow that a token was sent to it.
type Notification struct {
	Registry custody.Address
	AssetID  []byte
	// Depositor is the address that sent the token.
	Depositor custody.Address
	// Receiver is the address the token was sent to.
	Receiver custody.Address
	// Payee is the counterparty that is paid for the token. Depositor is
	// paid when empty.
	Payee custody.Address
}

// Settlement is the outcome of a settled swap.
type Settlement struct {
	Asset *EscrowedAsset
	Price price.Descriptor
	Batch *Batch
}

// Engine drives escrowed assets from receipt to settlement or recovery.
//
// Every method expects the configuration loaded by the caller. A
// CustodyMismatch or InsufficientFunds failure keeps the asset recorded.
// Such errors are marked with errors.Retain so that the transaction
// savepoint commits the record.
type Engine struct {
	auth     x.Authenticator
	bank     cash.Controller
	registry Registry
	ledger   Ledger
	exec     Executor
}

// NewEngine returns an engine using given authenticator to identify
// callers and notifying registries.
func NewEngine(auth x.Authenticator, bank cash.Controller, registry Registry) *Engine {
	return &Engine{
		auth:     auth,
		bank:     bank,
		registry: registry,
		ledger:   NewLedger(),
		exec:     NewExecutor(bank, registry),
	}
}

// Authorize fails with ErrUnauthorized unless the registry is allow-listed
// and authenticated as the source of the current call.
func (e *Engine) Authorize(ctx custody.Context, conf *Config, registry custody.Address) error {
	if !conf.IsTrusted(registry) {
		return errors.Wrapf(errors.ErrUnauthorized, "registry %s is not trusted", registry)
	}
	if !e.auth.HasAddress(ctx, registry) {
		return errors.Wrapf(errors.ErrUnauthorized, "notification not issued by registry %s", registry)
	}
	return nil
}

// Receive records a received token and settles the swap if the custodian
// holds the token and enough currency to pay for it.
func (e *Engine) Receive(ctx custody.Context, db custody.KVStore, conf *Config, n Notification) (*Settlement, error) {
	if err := e.Authorize(ctx, conf, n.Registry); err != nil {
		return nil, err
	}
	if !n.Receiver.Equals(conf.Custodian) {
		return nil, errors.Wrapf(errors.ErrInput, "token sent to %s, not to the custodian", n.Receiver)
	}
	proof, err := e.registry.Attest(db, n.Registry, n.AssetID)
	if err != nil {
		return nil, errors.Wrap(err, "custody proof")
	}
	payee := n.Payee
	if len(payee) == 0 {
		payee = n.Depositor
	}
	asset := &EscrowedAsset{
		Metadata:     &custody.Metadata{Schema: 1},
		Registry:     n.Registry,
		AssetID:      n.AssetID,
		Depositor:    n.Depositor,
		Payee:        payee,
		CustodyProof: proof,
	}
	if err := e.ledger.Record(db, asset); err != nil {
		return nil, err
	}
	logger := custody.GetLogger(ctx).With("module", "escrow")
	logger.Debug("Asset recorded", "registry", n.Registry, "asset", string(n.AssetID), "depositor", n.Depositor)

	s, err := e.settle(db, conf, asset)
	if errors.IsRetained(err) {
		logger.Info("Settlement deferred", "asset", string(n.AssetID), "reason", err.Error())
	}
	return s, err
}

// Settle retries the settlement of a recorded asset.
func (e *Engine) Settle(db custody.KVStore, conf *Config, registry custody.Address, assetID []byte) (*Settlement, error) {
	asset, err := e.ledger.Get(db, registry, assetID)
	if err != nil {
		return nil, err
	}
	return e.settle(db, conf, asset)
}

func (e *Engine) settle(db custody.KVStore, conf *Config, asset *EscrowedAsset) (*Settlement, error) {
	holder, err := e.registry.Holder(db, asset.Registry, asset.AssetID)
	if err != nil {
		return nil, errors.Wrap(err, "holder")
	}
	if !holder.Equals(conf.Custodian) {
		return nil, errors.Retain(errors.Wrapf(ErrCustodyMismatch, "asset %q is held by %s", asset.AssetID, holder))
	}

	meta, err := e.registry.Metadata(db, asset.Registry, asset.AssetID)
	if err != nil {
		return nil, errors.Wrap(err, "metadata")
	}
	desc, err := price.Decode(meta)
	if err != nil {
		return nil, err
	}

	balance, err := e.bank.Balance(db, conf.Custodian)
	if err != nil {
		return nil, errors.Wrap(err, "custodian balance")
	}
	if have := balance.Amount(desc.Denom); have < desc.Amount {
		return nil, errors.Retain(errors.Wrapf(ErrInsufficientFunds, "custodian holds %d%s, price is %s", have, desc.Denom, desc))
	}

	if _, err := e.ledger.Take(db, asset.Registry, asset.AssetID); err != nil {
		return nil, err
	}
	pay := desc.Coin()
	batch := NewBatch(
		&CurrencyTransfer{To: asset.Payee, Amount: coin.Coins{&pay}},
		&RegistryTransfer{Registry: asset.Registry, AssetID: asset.AssetID, NewOwner: conf.Payer},
	)
	if err := e.exec.Execute(db, conf.Custodian, batch); err != nil {
		return nil, errors.Wrap(err, "settle")
	}
	return &Settlement{Asset: asset, Price: desc, Batch: batch}, nil
}

// Recover returns a recorded asset to its depositor. It can be called by
// the payer of record or by the depositor. If the custodian no longer holds
// the token, only the record is removed and the returned batch is empty.
func (e *Engine) Recover(ctx custody.Context, db custody.KVStore, conf *Config, registry custody.Address, assetID []byte) (*EscrowedAsset, *Batch, error) {
	asset, err := e.ledger.Get(db, registry, assetID)
	if err != nil {
		return nil, nil, err
	}
	if !x.HasAnyAddress(ctx, e.auth, conf.Payer, asset.Depositor) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the payer or the depositor can recover")
	}
	if _, err := e.ledger.Take(db, registry, assetID); err != nil {
		return nil, nil, err
	}
	holder, err := e.registry.Holder(db, registry, assetID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "holder")
	}
	batch := NewBatch()
	if holder.Equals(conf.Custodian) {
		batch = NewBatch(&RegistryTransfer{Registry: registry, AssetID: assetID, NewOwner: asset.Depositor})
	}
	if err := e.exec.Execute(db, conf.Custodian, batch); err != nil {
		return nil, nil, errors.Wrap(err, "recover")
	}
	return asset, batch, nil
}

// Refund sends all currency held by the custodian to the payer of record.
// Escrowed assets are not affected.
func (e *Engine) Refund(ctx custody.Context, db custody.KVStore, conf *Config) (*Batch, error) {
	if !e.auth.HasAddress(ctx, conf.Payer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only the payer can refund")
	}
	balance, err := e.bank.Balance(db, conf.Custodian)
	if err != nil {
		return nil, errors.Wrap(err, "custodian balance")
	}
	if balance.IsEmpty() {
		return nil, errors.Wrap(ErrInsufficientFunds, "nothing to refund")
	}
	batch := NewBatch(&CurrencyTransfer{To: conf.Payer, Amount: balance.Clone()})
	if err := e.exec.Execute(db, conf.Custodian, batch); err != nil {
		return nil, errors.Wrap(err, "refund")
	}
	return batch, nil
}
