package nft

import (
	"fmt"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	// ExtensionName is the condition extension of registry identities.
	ExtensionName = "nft"

	registryBucketName = "nft_reg"
	tokenBucketName    = "nft_token"
	operatorBucketName = "nft_oper"

	maxNameLength = 64
)

var (
	isSymbol  = regexp.MustCompile(`^[A-Z]{2,8}$`).MatchString
	isTokenID = regexp.MustCompile(`^[A-Z]{2,8}\.[1-9][0-9]*$`).MatchString
)

// RegistryCondition returns the condition a registry with given sequence
// ID acts with.
func RegistryCondition(id []byte) custody.Condition {
	return custody.NewCondition(ExtensionName, "registry", id)
}

// Registry is a single token collection.
type Registry struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	// ID is the sequence value the registry identity is derived from.
	ID     []byte          `protobuf:"bytes,2,opt,name=id,proto3" json:"id,omitempty"`
	Owner  custody.Address `protobuf:"bytes,3,opt,name=owner,proto3" json:"owner,omitempty"`
	Symbol string          `protobuf:"bytes,4,opt,name=symbol,proto3" json:"symbol,omitempty"`
	Name   string          `protobuf:"bytes,5,opt,name=name,proto3" json:"name,omitempty"`
	// Count is the number of tokens minted so far.
	Count uint64 `protobuf:"varint,6,opt,name=count,proto3" json:"count,omitempty"`
}

func (r *Registry) Reset()         { *r = Registry{} }
func (r *Registry) String() string { return proto.CompactTextString(r) }
func (*Registry) ProtoMessage()    {}

var _ orm.Model = (*Registry)(nil)

// Condition returns the condition this registry acts with.
func (r *Registry) Condition() custody.Condition {
	return RegistryCondition(r.ID)
}

// Address returns the registry identity.
func (r *Registry) Address() custody.Address {
	return r.Condition().Address()
}

// NextTokenID increments the mint counter and returns a new token ID.
func (r *Registry) NextTokenID() string {
	r.Count++
	return fmt.Sprintf("%s.%d", r.Symbol, r.Count)
}

func (r *Registry) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if len(r.ID) == 0 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrEmpty, "required"))
	}
	errs = errors.AppendField(errs, "Owner", r.Owner.Validate())
	if !isSymbol(r.Symbol) {
		errs = errors.Append(errs, errors.Field("Symbol", errors.ErrInput, "invalid symbol"))
	}
	if len(r.Name) > maxNameLength {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "name too long"))
	}
	return errs
}

// Token is a single asset of a registry.
type Token struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	ID       string            `protobuf:"bytes,3,opt,name=id,proto3" json:"id,omitempty"`
	Owner    custody.Address   `protobuf:"bytes,4,opt,name=owner,proto3" json:"owner,omitempty"`
	// Approvals lists addresses allowed to transfer the token on behalf
	// of the owner. Cleared on every transfer.
	Approvals []custody.Address `protobuf:"bytes,5,rep,name=approvals,proto3" json:"approvals,omitempty"`
	// Info is the opaque metadata blob attached at mint time.
	Info []byte `protobuf:"bytes,6,opt,name=info,proto3" json:"info,omitempty"`
}

func (t *Token) Reset()         { *t = Token{} }
func (t *Token) String() string { return proto.CompactTextString(t) }
func (*Token) ProtoMessage()    {}

var _ orm.Model = (*Token)(nil)

// IsApproved returns true if given address may transfer the token.
func (t *Token) IsApproved(addr custody.Address) bool {
	for _, a := range t.Approvals {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}

func (t *Token) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", t.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", t.Registry.Validate())
	if !isTokenID(t.ID) {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "invalid token ID"))
	}
	errs = errors.AppendField(errs, "Owner", t.Owner.Validate())
	for i, a := range t.Approvals {
		errs = errors.AppendField(errs, fmt.Sprintf("Approvals.%d", i), a.Validate())
	}
	return errs
}

// Attestation is a snapshot of the token ownership, issued by the registry
// for the receivers of a token.
type Attestation struct {
	Metadata  *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry  custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	TokenID   string            `protobuf:"bytes,3,opt,name=token_id,proto3" json:"token_id,omitempty"`
	Holder    custody.Address   `protobuf:"bytes,4,opt,name=holder,proto3" json:"holder,omitempty"`
	Approvals []custody.Address `protobuf:"bytes,5,rep,name=approvals,proto3" json:"approvals,omitempty"`
}

func (a *Attestation) Reset()         { *a = Attestation{} }
func (a *Attestation) String() string { return proto.CompactTextString(a) }
func (*Attestation) ProtoMessage()    {}

// Operator allows an address to act for the owner on every token the
// owner holds in a registry.
type Operator struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Registry custody.Address   `protobuf:"bytes,2,opt,name=registry,proto3" json:"registry,omitempty"`
	Owner    custody.Address   `protobuf:"bytes,3,opt,name=owner,proto3" json:"owner,omitempty"`
	Operator custody.Address   `protobuf:"bytes,4,opt,name=operator,proto3" json:"operator,omitempty"`
}

func (o *Operator) Reset()         { *o = Operator{} }
func (o *Operator) String() string { return proto.CompactTextString(o) }
func (*Operator) ProtoMessage()    {}

var _ orm.Model = (*Operator)(nil)

func (o *Operator) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", o.Metadata.Validate())
	errs = errors.AppendField(errs, "Registry", o.Registry.Validate())
	errs = errors.AppendField(errs, "Owner", o.Owner.Validate())
	errs = errors.AppendField(errs, "Operator", o.Operator.Validate())
	if o.Owner.Equals(o.Operator) {
		errs = errors.Append(errs, errors.Field("Operator", errors.ErrInput, "owner cannot be its own operator"))
	}
	return errs
}

// OperatorKey returns the database key of an operator grant. Addresses
// have a fixed length, so registry and owner prefixes can be scanned.
func OperatorKey(registry, owner, operator custody.Address) []byte {
	key := make([]byte, 0, len(registry)+len(owner)+len(operator))
	key = append(key, registry...)
	key = append(key, owner...)
	return append(key, operator...)
}

// TokenKey returns the database key of a token: registry address followed
// by the token ID.
func TokenKey(registry custody.Address, tokenID []byte) []byte {
	return append(append([]byte{}, registry...), tokenID...)
}

// NewRegistryBucket returns a bucket storing registries keyed by their
// address.
func NewRegistryBucket() orm.ModelBucket {
	return orm.NewModelBucket(registryBucketName, &Registry{})
}

// NewTokenBucket returns a bucket storing tokens keyed by TokenKey.
func NewTokenBucket() orm.ModelBucket {
	return orm.NewModelBucket(tokenBucketName, &Token{})
}

// NewOperatorBucket returns a bucket storing operator grants keyed by
// OperatorKey.
func NewOperatorBucket() orm.ModelBucket {
	return orm.NewModelBucket(operatorBucketName, &Operator{})
}

// RegisterQuery exposes registries under "/nft/registries", tokens under
// "/nft/tokens" and operator grants under "/nft/operators". Use the prefix
// query with a registry address to list its tokens.
func RegisterQuery(qr custody.QueryRouter) {
	NewRegistryBucket().Register("nft/registries", qr)
	NewTokenBucket().Register("nft/tokens", qr)
	NewOperatorBucket().Register("nft/operators", qr)
}
