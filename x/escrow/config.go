package escrow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const configPkg = "escrow"

// Custodian returns the address of the account holding escrowed tokens and
// currency. Only this extension can act on its behalf.
func Custodian() custody.Address {
	return custody.NewCondition("escrow", "custodian", nil).Address()
}

// Config is the escrow configuration. It is set once.
type Config struct {
	Metadata  *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Custodian custody.Address   `protobuf:"bytes,2,opt,name=custodian,proto3" json:"custodian,omitempty"`
	// Payer is the payer of record. It pays for and receives every
	// settled token.
	Payer custody.Address `protobuf:"bytes,3,opt,name=payer,proto3" json:"payer,omitempty"`
	// Registries lists trusted registries, sorted and without
	// duplicates.
	Registries []custody.Address `protobuf:"bytes,4,rep,name=registries,proto3" json:"registries,omitempty"`
}

func (c *Config) Reset()         { *c = Config{} }
func (c *Config) String() string { return proto.CompactTextString(c) }
func (*Config) ProtoMessage()    {}

// NewConfig returns a configuration for given payer. The registry list is
// normalized.
func NewConfig(payer custody.Address, registries []custody.Address) *Config {
	regs := make([]custody.Address, 0, len(registries))
	regs = append(regs, registries...)
	sort.Slice(regs, func(i, j int) bool {
		return bytes.Compare(regs[i], regs[j]) < 0
	})
	uniq := regs[:0]
	for _, r := range regs {
		if len(uniq) > 0 && r.Equals(uniq[len(uniq)-1]) {
			continue
		}
		uniq = append(uniq, r)
	}
	return &Config{
		Metadata:   &custody.Metadata{Schema: 1},
		Custodian:  Custodian(),
		Payer:      payer,
		Registries: uniq,
	}
}

// IsTrusted returns true if given registry is allow-listed.
func (c *Config) IsTrusted(registry custody.Address) bool {
	i := sort.Search(len(c.Registries), func(i int) bool {
		return bytes.Compare(c.Registries[i], registry) >= 0
	})
	return i < len(c.Registries) && c.Registries[i].Equals(registry)
}

func (c *Config) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if !c.Custodian.Equals(Custodian()) {
		errs = errors.Append(errs, errors.Field("Custodian", errors.ErrInput, "not the escrow custodian"))
	}
	errs = errors.AppendField(errs, "Payer", c.Payer.Validate())
	if len(c.Registries) == 0 {
		errs = errors.Append(errs, errors.Field("Registries", errors.ErrEmpty, "at least one registry required"))
	}
	for i, r := range c.Registries {
		name := fmt.Sprintf("Registries.%d", i)
		if err := r.Validate(); err != nil {
			errs = errors.AppendField(errs, name, err)
			continue
		}
		if i > 0 && bytes.Compare(c.Registries[i-1], r) >= 0 {
			errs = errors.Append(errs, errors.Field(name, errors.ErrInput, "not sorted or duplicated"))
		}
	}
	return errs
}

type jsonConfig struct {
	Payer      custody.Address   `json:"payer"`
	Registries []custody.Address `json:"registries"`
}

// UnmarshalJSON reads the genesis representation. The custodian is never
// part of it.
func (c *Config) UnmarshalJSON(raw []byte) error {
	var j jsonConfig
	if err := json.Unmarshal(raw, &j); err != nil {
		return err
	}
	*c = *NewConfig(j.Payer, j.Registries)
	return nil
}

// MarshalJSON writes the genesis representation.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonConfig{Payer: c.Payer, Registries: c.Registries})
}

// LoadConfig returns the stored configuration. ErrNotFound is returned if
// the escrow was not instantiated.
func LoadConfig(db gconf.ReadStore) (*Config, error) {
	var c Config
	if err := gconf.Load(db, configPkg, &c); err != nil {
		return nil, errors.Wrap(err, "escrow configuration")
	}
	return &c, nil
}

// SaveConfig stores the configuration. It fails with ErrDuplicate if one is
// already stored.
func SaveConfig(db gconf.Store, c *Config) error {
	return gconf.SaveOnce(db, configPkg, c)
}
