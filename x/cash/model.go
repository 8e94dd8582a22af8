package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/coin"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// BucketName is where we store the wallets
const BucketName = "cash"

// Set is the wallet content: a normalized set of coins.
type Set struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Coins    coin.Coins        `protobuf:"bytes,2,rep,name=coins" json:"coins,omitempty"`
}

func (s *Set) Reset()         { *s = Set{} }
func (s *Set) String() string { return proto.CompactTextString(s) }
func (*Set) ProtoMessage()    {}

var _ orm.Model = (*Set)(nil)

// Validate requires that all coins are in alphabetical order and all
// amounts are positive.
func (s *Set) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return s.Coins.Validate()
}

// NewBucket returns the bucket storing wallets keyed by owner address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Set{})
}
