package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// RegisterQuery exposes the configuration under "/escrow/config" and the
// escrowed assets under "/escrow/assets". Assets of a single registry are
// listed with the prefix query and the registry address.
func RegisterQuery(qr custody.QueryRouter) {
	qr.Register("/escrow/config", configQuery{})
	NewBucket().Register("escrow/assets", qr)
}

type configQuery struct{}

func (configQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	if mod != custody.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	conf, err := LoadConfig(db)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	raw, err := proto.Marshal(conf)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return []custody.Model{custody.Pair([]byte(configPkg), raw)}, nil
}
