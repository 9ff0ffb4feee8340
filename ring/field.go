// Package ring implements elementwise and matrix modular arithmetic
// over the power-of-two rings Z/2^32, Z/2^64 and Z/2^128, and the
// typed N-dimensional tensor buffer that the sharing and kernel
// packages build additive secret sharing on top of.
package ring

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Field selects the ring modulus 2^k a Tensor's elements live in.
type Field int

// Supported rings. The kernel never negotiates between these at
// runtime; a Tensor is created with one and keeps it for its lifetime.
const (
	F32 Field = iota
	F64
	F128
)

// String returns the conventional name of the field.
func (f Field) String() string {
	switch f {
	case F32:
		return "F32"
	case F64:
		return "F64"
	case F128:
		return "F128"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Bits returns k such that the field's modulus is 2^k.
func (f Field) Bits() int {
	switch f {
	case F32:
		return 32
	case F64:
		return 64
	case F128:
		return 128
	default:
		panic(fmt.Sprintf("ring: invalid field %d", int(f)))
	}
}

// WordSize returns the size in bytes of a single ring element as
// stored in a flat byte buffer, matching the Beaver provider's
// numel*sizeof(field) wire contract.
func (f Field) WordSize() int {
	switch f {
	case F32:
		return 4
	case F64:
		return 8
	case F128:
		return 16
	default:
		panic(fmt.Sprintf("ring: invalid field %d", int(f)))
	}
}

// Word128 is a 128-bit ring element held as two uint64 limbs, least
// significant first. No available library offers generic power-of-two
// ring arithmetic at 128 bits; the limb arithmetic below is
// hand-rolled with math/bits, the same way uint64-limbed modular
// arithmetic is hand-rolled elsewhere in this codebase's lineage — see
// DESIGN.md for the stdlib-use justification.
type Word128 struct {
	Lo, Hi uint64
}

// AddW128 returns a+b mod 2^128.
func AddW128(a, b Word128) Word128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, _ := bits.Add64(a.Hi, b.Hi, carry)
	return Word128{Lo: lo, Hi: hi}
}

// SubW128 returns a-b mod 2^128.
func SubW128(a, b Word128) Word128 {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, _ := bits.Sub64(a.Hi, b.Hi, borrow)
	return Word128{Lo: lo, Hi: hi}
}

// NegW128 returns -a mod 2^128.
func NegW128(a Word128) Word128 {
	return SubW128(Word128{}, a)
}

// MulW128 returns a*b mod 2^128.
func MulW128(a, b Word128) Word128 {
	// (a.Hi*2^64+a.Lo)*(b.Hi*2^64+b.Lo) mod 2^128
	//   = a.Lo*b.Lo + 2^64*(a.Lo*b.Hi + a.Hi*b.Lo)  (mod 2^128)
	hi, lo := bits.Mul64(a.Lo, b.Lo)
	hi += a.Lo*b.Hi + a.Hi*b.Lo
	return Word128{Lo: lo, Hi: hi}
}

// LShiftW128 returns a<<n mod 2^128, 0<=n<128.
func LShiftW128(a Word128, n uint) Word128 {
	if n == 0 {
		return a
	}
	if n >= 128 {
		return Word128{}
	}
	if n >= 64 {
		return Word128{Lo: 0, Hi: a.Lo << (n - 64)}
	}
	return Word128{Lo: a.Lo << n, Hi: (a.Hi << n) | (a.Lo >> (64 - n))}
}

// RShiftW128 returns the logical a>>n mod 2^128, 0<=n<128.
func RShiftW128(a Word128, n uint) Word128 {
	if n == 0 {
		return a
	}
	if n >= 128 {
		return Word128{}
	}
	if n >= 64 {
		return Word128{Lo: a.Hi >> (n - 64), Hi: 0}
	}
	return Word128{Lo: (a.Lo >> n) | (a.Hi << (64 - n)), Hi: a.Hi >> n}
}

// ARShiftW128 returns the arithmetic (sign-extending) a>>n, treating a
// as a two's-complement signed 128-bit integer, 0<=n<128.
func ARShiftW128(a Word128, n uint) Word128 {
	r := RShiftW128(a, n)
	if a.Hi>>63 == 0 || n == 0 {
		return r
	}
	if n >= 64 {
		return Word128{Lo: r.Lo | (^uint64(0) << (128 - n)), Hi: ^uint64(0)}
	}
	return Word128{Lo: r.Lo, Hi: r.Hi | (^uint64(0) << (64 - n))}
}

// GEW128 reports whether a >= b, both treated as unsigned 128-bit
// integers.
func GEW128(a, b Word128) bool {
	if a.Hi != b.Hi {
		return a.Hi > b.Hi
	}
	return a.Lo >= b.Lo
}

// Ring is the set of native unsigned integer widths the generic
// elementwise kernels in this package are instantiated for. F128 is
// handled separately via the Word128 routines above since Word128 is
// not itself a constraints.Unsigned type.
type Ring interface {
	constraints.Unsigned
}
