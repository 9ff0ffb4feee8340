// Package beaver defines the correlated-randomness Provider external
// collaborator that the kernel's multiplication and truncation
// operations consume, plus a TrustedDealer reference implementation
// for tests and single-process embedders.
//
// Every triple or pair a Provider hands out is identified by a tag
// string the caller controls. Calling the same method with the same
// tag and the same aTag/bTag always reproduces the same masks, which
// is what lets the kernel's Beaver cache replay an operand's mask
// across repeated multiplications without re-deriving it from
// scratch.
package beaver

import "github.com/privacystack/ringshare/ring"

// Provider deals the correlated randomness the kernel's masked-open
// multiplication and truncation protocols consume. A call is local:
// it returns only the calling rank's shares, but every rank calling
// with the same (field, shape, tag, aTag, bTag) across a run receives
// shares of the same underlying plaintext triple.
type Provider interface {
	// WorldSize returns the number of parties this provider deals for.
	WorldSize() int

	// Mul deals an elementwise Beaver triple (a, b, c) with a*b=c in
	// the clear, shaped like shape. aTag/bTag select the sub-seed used
	// to derive a and b; an empty string defaults to tag+"/a" (resp.
	// "/b"), a fresh mask tied to this one call. Passing back a
	// previously returned aTag re-derives the identical a, the
	// mechanism the kernel's cache relies on to replay a mask.
	Mul(rank int, f ring.Field, shape ring.Shape, tag, aTag, bTag string) (a, b, c *ring.Tensor, err error)

	// Dot deals a matmul Beaver triple: a is m×k, b is k×n, c is m×n,
	// with c=a@b in the clear.
	Dot(rank int, f ring.Field, m, n, k int, tag, aTag, bTag string) (a, b, c *ring.Tensor, err error)

	// Square deals a squaring pair (a, a2) with a2=a*a in the clear.
	Square(rank int, f ring.Field, shape ring.Shape, tag, aTag string) (a, a2 *ring.Tensor, err error)

	// MulPriv deals a two-party private-multiplication pair: rank 0
	// receives (a0, c0), rank 1 receives (a1, c1), with
	// a0*a1 = c0+c1 in the clear. Only ranks 0 and 1 are meaningful
	// callers; the kernel enforces the two-party precondition.
	MulPriv(rank int, f ring.Field, shape ring.Shape, tag string) (aLocal, cLocal *ring.Tensor, err error)

	// Trunc deals a truncation pair (r, r>>bits) shaped like shape.
	Trunc(rank int, f ring.Field, shape ring.Shape, bits int, tag string) (r, rShift *ring.Tensor, err error)

	// TruncPr deals a probabilistic-truncation triple (r, r_c, r_b):
	// r_b is the top bit of r embedded as a 0/1 ring element, r_c is r
	// with its top bit cleared (r mod 2^(k-1)), shifted right by bits.
	TruncPr(rank int, f ring.Field, shape ring.Shape, bits int, tag string) (r, rC, rB *ring.Tensor, err error)
}
