package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

// Initializer reads the escrow configuration from the genesis
// "conf.escrow" section. The section is optional, the escrow can also be
// configured with InstantiateMsg.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the genesis configuration if present.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	var conf Config
	err := gconf.InitConfig(db, opts, configPkg, &conf)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}
