package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/nft"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	instantiateCost int64 = 500
	depositCost     int64 = 100
	receiveCost     int64 = 200
	settleCost      int64 = 200
	recoverCost     int64 = 100
	refundCost      int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this
// package. The authenticator must recognize both signers and notifying
// registries.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, bank cash.Controller, registry Registry) {
	engine := NewEngine(auth, bank, registry)
	r.Handle(&InstantiateMsg{}, InstantiateHandler{auth: auth})
	r.Handle(&DepositMsg{}, DepositHandler{auth: auth, bank: bank})
	r.Handle(&nft.ReceiveMsg{}, ReceiveHandler{engine: engine})
	r.Handle(&SettleMsg{}, SettleHandler{engine: engine})
	r.Handle(&RecoverMsg{}, RecoverHandler{engine: engine})
	r.Handle(&RefundMsg{}, RefundHandler{engine: engine})
}

// InstantiateHandler stores the escrow configuration.
type InstantiateHandler struct {
	auth x.Authenticator
}

var _ custody.Handler = InstantiateHandler{}

func (h InstantiateHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: instantiateCost}, nil
}

func (h InstantiateHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := SaveConfig(db, conf); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: conf.Custodian,
		Tags: []common.KVPair{
			custody.Tag("payer", conf.Payer.String()),
			custody.Tag("custodian", conf.Custodian.String()),
		},
	}, nil
}

func (h InstantiateHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*Config, error) {
	var msg InstantiateMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	return NewConfig(signer.Address(), msg.Registries), nil
}

// DepositHandler moves funds from a signer to the custodian.
type DepositHandler struct {
	auth x.Authenticator
	bank cash.Controller
}

var _ custody.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: depositCost}, nil
}

func (h DepositHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	for _, c := range msg.Amount {
		if err := h.bank.MoveCoins(db, msg.Source, conf.Custodian, *c); err != nil {
			return nil, errors.Wrap(err, "deposit")
		}
	}
	return &custody.DeliverResult{
		Tags: []common.KVPair{
			custody.Tag("sender", msg.Source.String()),
			custody.Tag("amount", msg.Amount.String()),
		},
	}, nil
}

func (h DepositHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*DepositMsg, *Config, error) {
	var msg DepositMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfig(db)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	return &msg, conf, nil
}

// ReceiveHandler processes notifications of tokens sent to the custodian.
// On success the result data is the encoded settlement batch.
type ReceiveHandler struct {
	engine *Engine
}

var _ custody.Handler = ReceiveHandler{}

// Check authorizes the notification only. Custody and funding are
// verified on delivery.
func (h ReceiveHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	msg, conf, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Authorize(ctx, conf, msg.Registry); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: receiveCost}, nil
}

func (h ReceiveHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, conf, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	s, err := h.engine.Receive(ctx, db, conf, Notification{
		Registry:  msg.Registry,
		AssetID:   []byte(msg.TokenID),
		Depositor: msg.Sender,
		Receiver:  msg.Receiver,
		Payee:     msg.Payee,
	})
	if err != nil {
		return nil, err
	}
	return settlementResult("receive_asset", s)
}

func (h ReceiveHandler) validate(db custody.KVStore, tx custody.Tx) (*nft.ReceiveMsg, *Config, error) {
	var msg nft.ReceiveMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfig(db)
	if err != nil {
		return nil, nil, err
	}
	return &msg, conf, nil
}

// SettleHandler retries the settlement of a recorded asset. Anyone can
// request it, the outcome does not depend on the caller.
type SettleHandler struct {
	engine *Engine
}

var _ custody.Handler = SettleHandler{}

func (h SettleHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: settleCost}, nil
}

func (h SettleHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, conf, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	s, err := h.engine.Settle(db, conf, msg.Registry, msg.AssetID)
	if err != nil {
		return nil, err
	}
	return settlementResult("settle_asset", s)
}

func (h SettleHandler) validate(db custody.KVStore, tx custody.Tx) (*SettleMsg, *Config, error) {
	var msg SettleMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfig(db)
	if err != nil {
		return nil, nil, err
	}
	return &msg, conf, nil
}

// RecoverHandler returns a recorded asset to its depositor.
type RecoverHandler struct {
	engine *Engine
}

var _ custody.Handler = RecoverHandler{}

func (h RecoverHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: recoverCost}, nil
}

func (h RecoverHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, conf, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	asset, batch, err := h.engine.Recover(ctx, db, conf, msg.Registry, msg.AssetID)
	if err != nil {
		return nil, err
	}
	raw, err := proto.Marshal(batch)
	if err != nil {
		return nil, errors.Wrap(err, "marshal batch")
	}
	return &custody.DeliverResult{
		Data: raw,
		Tags: []common.KVPair{
			custody.Tag("action", "recover_asset"),
			custody.Tag("registry", asset.Registry.String()),
			custody.Tag("asset_id", string(asset.AssetID)),
			custody.Tag("recipient", asset.Depositor.String()),
		},
	}, nil
}

func (h RecoverHandler) validate(db custody.KVStore, tx custody.Tx) (*RecoverMsg, *Config, error) {
	var msg RecoverMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfig(db)
	if err != nil {
		return nil, nil, err
	}
	return &msg, conf, nil
}

// RefundHandler sweeps the custodian funds to the payer of record.
type RefundHandler struct {
	engine *Engine
}

var _ custody.Handler = RefundHandler{}

func (h RefundHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: refundCost}, nil
}

func (h RefundHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	conf, err := h.validate(db, tx)
	if err != nil {
		return nil, err
	}
	batch, err := h.engine.Refund(ctx, db, conf)
	if err != nil {
		return nil, err
	}
	raw, err := proto.Marshal(batch)
	if err != nil {
		return nil, errors.Wrap(err, "marshal batch")
	}
	return &custody.DeliverResult{
		Data: raw,
		Tags: []common.KVPair{
			custody.Tag("action", "refund"),
			custody.Tag("recipient", conf.Payer.String()),
		},
	}, nil
}

func (h RefundHandler) validate(db custody.KVStore, tx custody.Tx) (*Config, error) {
	var msg RefundMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return LoadConfig(db)
}

func settlementResult(action string, s *Settlement) (*custody.DeliverResult, error) {
	raw, err := proto.Marshal(s.Batch)
	if err != nil {
		return nil, errors.Wrap(err, "marshal batch")
	}
	return &custody.DeliverResult{
		Data: raw,
		Tags: []common.KVPair{
			custody.Tag("action", action),
			custody.Tag("sender", s.Asset.Depositor.String()),
			custody.Tag("registry", s.Asset.Registry.String()),
			custody.Tag("asset_id", string(s.Asset.AssetID)),
			custody.Tag("price", s.Price.String()),
		},
	}, nil
}
