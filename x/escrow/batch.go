package escrow

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
)

// Instruction is a single side effect emitted by the engine.
type Instruction interface {
	custody.Persistent
	Validate() error
}

// CurrencyTransfer pays given amount from the custodian.
type CurrencyTransfer struct {
	To     custody.Address `protobuf:"bytes,1,opt,name=to,proto3" json:"to,omitempty"`
	Amount coin.Coins      `protobuf:"bytes,2,rep,name=amount" json:"amount,omitempty"`
}

func (t *CurrencyTransfer) Reset()      { *t = CurrencyTransfer{} }
func (*CurrencyTransfer) ProtoMessage() {}

func (t *CurrencyTransfer) Validate() error {
	if err := t.To.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if t.Amount.IsEmpty() {
		return errors.Wrap(errors.ErrAmount, "nothing to transfer")
	}
	return t.Amount.Validate()
}

func (t *CurrencyTransfer) String() string {
	return fmt.Sprintf("pay %s to %s", t.Amount, t.To)
}

// RegistryTransfer moves a token held by the custodian to a new owner.
type RegistryTransfer struct {
	Registry custody.Address `protobuf:"bytes,1,opt,name=registry,proto3" json:"registry,omitempty"`
	AssetID  []byte          `protobuf:"bytes,2,opt,name=asset_id,proto3" json:"asset_id,omitempty"`
	NewOwner custody.Address `protobuf:"bytes,3,opt,name=new_owner,proto3" json:"new_owner,omitempty"`
}

func (t *RegistryTransfer) Reset()      { *t = RegistryTransfer{} }
func (*RegistryTransfer) ProtoMessage() {}

func (t *RegistryTransfer) Validate() error {
	if err := t.Registry.Validate(); err != nil {
		return errors.Wrap(err, "registry")
	}
	if len(t.AssetID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "asset ID")
	}
	return errors.Wrap(t.NewOwner.Validate(), "new owner")
}

func (t *RegistryTransfer) String() string {
	return fmt.Sprintf("transfer %s of %s to %s", t.AssetID, t.Registry, t.NewOwner)
}

// BatchInstruction holds exactly one instruction. The set field tells the
// instruction type.
type BatchInstruction struct {
	Currency *CurrencyTransfer `protobuf:"bytes,1,opt,name=currency" json:"currency,omitempty"`
	Registry *RegistryTransfer `protobuf:"bytes,2,opt,name=registry" json:"registry,omitempty"`
}

func (m *BatchInstruction) Reset()         { *m = BatchInstruction{} }
func (m *BatchInstruction) String() string { return proto.CompactTextString(m) }
func (*BatchInstruction) ProtoMessage()    {}

// Get returns the instruction. ErrType is returned unless exactly one
// field is set.
func (m *BatchInstruction) Get() (Instruction, error) {
	switch {
	case m.Currency != nil && m.Registry == nil:
		return m.Currency, nil
	case m.Registry != nil && m.Currency == nil:
		return m.Registry, nil
	default:
		return nil, errors.Wrap(errors.ErrType, "batch instruction must hold exactly one transfer")
	}
}

func wrapInstruction(in Instruction) *BatchInstruction {
	switch in := in.(type) {
	case *CurrencyTransfer:
		return &BatchInstruction{Currency: in}
	case *RegistryTransfer:
		return &BatchInstruction{Registry: in}
	default:
		return &BatchInstruction{}
	}
}

// Batch is an ordered list of instructions applied all or none.
type Batch struct {
	Instructions []*BatchInstruction `protobuf:"bytes,1,rep,name=instructions" json:"instructions,omitempty"`
}

func (b *Batch) Reset()         { *b = Batch{} }
func (b *Batch) String() string { return proto.CompactTextString(b) }
func (*Batch) ProtoMessage()    {}

// NewBatch returns a batch of given instructions, in order.
func NewBatch(ins ...Instruction) *Batch {
	b := &Batch{Instructions: make([]*BatchInstruction, 0, len(ins))}
	for _, in := range ins {
		b.Instructions = append(b.Instructions, wrapInstruction(in))
	}
	return b
}

// List returns the instructions in batch order.
func (b *Batch) List() ([]Instruction, error) {
	list := make([]Instruction, 0, len(b.Instructions))
	for i, bi := range b.Instructions {
		in, err := bi.Get()
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		list = append(list, in)
	}
	return list, nil
}

func (b *Batch) Validate() error {
	list, err := b.List()
	if err != nil {
		return err
	}
	for i, in := range list {
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

// Executor applies batches on behalf of the custodian.
type Executor struct {
	bank     cash.Controller
	registry Registry
}

// NewExecutor returns an executor moving currency with the bank and tokens
// with the registry.
func NewExecutor(bank cash.Controller, registry Registry) Executor {
	return Executor{bank: bank, registry: registry}
}

// Execute applies all instructions of the batch as the custodian. Either
// all of them are written or none.
func (e Executor) Execute(db custody.KVStore, custodian custody.Address, b *Batch) error {
	if err := b.Validate(); err != nil {
		return errors.Wrap(err, "batch")
	}
	cstore, ok := db.(custody.CacheableKVStore)
	if !ok {
		return e.apply(db, custodian, b)
	}
	cache := cstore.CacheWrap()
	if err := e.apply(cache, custodian, b); err != nil {
		cache.Discard()
		return err
	}
	return errors.Wrap(cache.Write(), "write batch")
}

func (e Executor) apply(db custody.KVStore, custodian custody.Address, b *Batch) error {
	list, err := b.List()
	if err != nil {
		return err
	}
	for i, in := range list {
		switch in := in.(type) {
		case *CurrencyTransfer:
			for _, c := range in.Amount {
				if err = e.bank.MoveCoins(db, custodian, in.To, *c); err != nil {
					break
				}
			}
		case *RegistryTransfer:
			err = e.registry.Transfer(db, in.Registry, in.AssetID, custodian, in.NewOwner)
		default:
			err = errors.Wrapf(errors.ErrType, "instruction %T", in)
		}
		if err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}
