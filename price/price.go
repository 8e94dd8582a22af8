package price

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
)

// ErrMalformedPrice is returned when the price cannot be read from the
// asset metadata.
var ErrMalformedPrice = errors.Register(150, "malformed price")

// Version is the envelope version written by Encode.
const Version = 1

// Descriptor is the price of an asset: a single positive amount of one
// denomination.
type Descriptor struct {
	Denom  string `protobuf:"bytes,1,opt,name=denom,proto3" json:"denom,omitempty"`
	Amount uint64 `protobuf:"varint,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (d *Descriptor) Reset()      { *d = Descriptor{} }
func (*Descriptor) ProtoMessage() {}

// Coin returns the price as a coin.
func (d Descriptor) Coin() coin.Coin {
	return coin.NewCoin(d.Amount, d.Denom)
}

// String returns a human readable price, for example "1000000umed".
func (d Descriptor) String() string {
	return d.Coin().String()
}

// Validate returns ErrMalformedPrice if the denomination is invalid or the
// amount is zero.
func (d Descriptor) Validate() error {
	if !coin.IsDenom(d.Denom) {
		return errors.Wrapf(ErrMalformedPrice, "invalid denomination %q", d.Denom)
	}
	if d.Amount == 0 {
		return errors.Wrap(ErrMalformedPrice, "zero amount")
	}
	return nil
}

// Metadata is the description attached to an asset when it is minted.
type Metadata struct {
	Description string
	Price       Descriptor
}

// envelope is the binary form of the metadata. Version is always written
// so that the layout can change without breaking old readers.
type envelope struct {
	Version     uint32      `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	Description string      `protobuf:"bytes,2,opt,name=description,proto3" json:"description,omitempty"`
	Price       *Descriptor `protobuf:"bytes,3,opt,name=price" json:"price,omitempty"`
}

func (m *envelope) Reset()         { *m = envelope{} }
func (m *envelope) String() string { return proto.CompactTextString(m) }
func (*envelope) ProtoMessage()    {}

// Encode serializes the metadata using the current envelope version.
func Encode(m Metadata) ([]byte, error) {
	if err := m.Price.Validate(); err != nil {
		return nil, err
	}
	price := m.Price
	return proto.Marshal(&envelope{
		Version:     Version,
		Description: m.Description,
		Price:       &price,
	})
}

// Decode reads the price from asset metadata. Both the versioned envelope
// and the legacy JSON document are supported.
func Decode(raw []byte) (Descriptor, error) {
	m, err := DecodeMetadata(raw)
	if err != nil {
		return Descriptor{}, err
	}
	return m.Price, nil
}

// DecodeMetadata reads the full metadata. The returned price is always
// valid.
func DecodeMetadata(raw []byte) (Metadata, error) {
	var (
		m   Metadata
		err error
	)
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		m, err = decodeJSON(trimmed)
	} else {
		m, err = decodeEnvelope(raw)
	}
	if err != nil {
		return Metadata{}, err
	}
	if err := m.Price.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func decodeEnvelope(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return Metadata{}, errors.Wrap(ErrMalformedPrice, "empty metadata")
	}
	var env envelope
	if err := proto.Unmarshal(raw, &env); err != nil {
		return Metadata{}, errors.Wrapf(ErrMalformedPrice, "envelope: %s", err)
	}
	if env.Version != Version {
		return Metadata{}, errors.Wrapf(ErrMalformedPrice, "unsupported version %d", env.Version)
	}
	if env.Price == nil {
		return Metadata{}, errors.Wrap(ErrMalformedPrice, "missing price")
	}
	return Metadata{Description: env.Description, Price: *env.Price}, nil
}

type legacyMetadata struct {
	Contract    string       `json:"contract"`
	Description *string      `json:"description"`
	Price       *legacyPrice `json:"price"`
}

type legacyPrice struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func decodeJSON(raw []byte) (Metadata, error) {
	var lm legacyMetadata
	if err := json.Unmarshal(raw, &lm); err != nil {
		return Metadata{}, errors.Wrapf(ErrMalformedPrice, "json: %s", err)
	}
	if lm.Price == nil {
		return Metadata{}, errors.Wrap(ErrMalformedPrice, "missing price")
	}
	amount, err := strconv.ParseUint(lm.Price.Amount, 10, 64)
	if err != nil {
		return Metadata{}, errors.Wrapf(ErrMalformedPrice, "amount %q", lm.Price.Amount)
	}
	m := Metadata{
		Price: Descriptor{Denom: lm.Price.Denom, Amount: amount},
	}
	if lm.Description != nil {
		m.Description = *lm.Description
	}
	return m, nil
}
