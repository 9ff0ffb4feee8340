// Package sharing defines the element-type taxonomy that tags a
// ring.Tensor with its secret-sharing semantics: public, single-owner
// private, additive share, one-bit boolean share, or an untagged
// intermediate ring element.
//
// A Value wraps a *ring.Tensor the way a typed share wrapper wraps a
// raw polynomial or buffer elsewhere in this lineage: the tag is
// metadata layered on top of an otherwise-opaque buffer, and changing
// it (As) never copies data.
package sharing

import (
	"fmt"

	"github.com/privacystack/ringshare/ring"
)

// Kind is the element-type tag of a Value.
type Kind int

const (
	// Pub is a public value, identical on every party.
	Pub Kind = iota
	// Priv is a value held in the clear by exactly one party; the
	// buffer content on every other party is unspecified.
	Priv
	// AShr is an additive share: party i holds xi with sum(xi) = x.
	AShr
	// BShr is a one-bit boolean share: party i holds bi with xor(bi) = b.
	// Only the low bit of the backing word is meaningful.
	BShr
	// RingRaw is an untagged ring element, used only for intermediate
	// values that must never be returned to a kernel caller.
	RingRaw
)

func (k Kind) String() string {
	switch k {
	case Pub:
		return "Pub"
	case Priv:
		return "Priv"
	case AShr:
		return "AShr"
	case BShr:
		return "BShr"
	case RingRaw:
		return "RingRaw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a ring.Tensor tagged with its sharing semantics. Owner is
// meaningful only when Kind is Priv.
type Value struct {
	Tensor *ring.Tensor
	Kind   Kind
	Owner  int
}

// MakePub tags t as a public value.
func MakePub(t *ring.Tensor) Value { return Value{Tensor: t, Kind: Pub} }

// MakePriv tags t as privately held by owner.
func MakePriv(t *ring.Tensor, owner int) Value { return Value{Tensor: t, Kind: Priv, Owner: owner} }

// MakeAShr tags t as an additive share.
func MakeAShr(t *ring.Tensor) Value { return Value{Tensor: t, Kind: AShr} }

// MakeBShr tags t as a one-bit boolean share.
func MakeBShr(t *ring.Tensor) Value { return Value{Tensor: t, Kind: BShr} }

// MakeRingRaw tags t as an untagged intermediate ring element.
func MakeRingRaw(t *ring.Tensor) Value { return Value{Tensor: t, Kind: RingRaw} }

// As re-tags v with a new Kind without copying the backing buffer. It
// is the kernel's only sanctioned way to change a Value's tag; every
// tag transition is explicit.
func (v Value) As(k Kind) Value {
	return Value{Tensor: v.Tensor, Kind: k, Owner: v.Owner}
}

// Field returns the ring field the underlying tensor lives in.
func (v Value) Field() ring.Field { return v.Tensor.Field }

// Shape returns the shape of the underlying tensor.
func (v Value) Shape() ring.Shape { return v.Tensor.Shape }

// CheckKind returns a typing error unless v has kind want.
func (v Value) CheckKind(want Kind) error {
	if v.Kind != want {
		return fmt.Errorf("sharing: expected %s, got %s", want, v.Kind)
	}
	return nil
}
