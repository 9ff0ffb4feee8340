package kernel

import (
	"github.com/privacystack/ringshare/prg"
	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
	"github.com/privacystack/ringshare/transport"
)

// RandA samples a fresh, unshared-looking additive share: each party
// draws uniform ring elements from its own private PRG and arithmetic
// right-shifts them by 2 bits, keeping the implied secret within
// [-2^(k-2), 2^(k-2)) so downstream signed interpretation and
// truncation stay well-defined.
func (ctx *Context) RandA(f ring.Field, shape ring.Shape, tag string) (sharing.Value, error) {
	r, err := ctx.PRG.GenPriv(f, shape, prg.Tag(tag))
	if err != nil {
		return sharing.Value{}, newErr("RandA", CommFailure, "draw: %w", err)
	}
	out := ring.New(f, shape)
	if err := ring.ARShift(r, 2, out); err != nil {
		return sharing.Value{}, newErr("RandA", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}

// P2A converts a public value to an additive share: every party draws
// a correlated PRSS pair (r0,r1) and takes r0-r1 as its share; rank 0
// additionally folds in the public value so the shares sum to x.
func (ctx *Context) P2A(x sharing.Value, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.Pub); err != nil {
		return sharing.Value{}, newErr("P2A", FieldMismatch, "%w", err)
	}
	r0, r1, err := ctx.PRG.GenPrssPair(x.Field(), x.Shape(), prg.Tag(tag))
	if err != nil {
		return sharing.Value{}, newErr("P2A", CommFailure, "prss: %w", err)
	}
	share := ring.New(x.Field(), x.Shape())
	if err := ring.Sub(r0, r1, share); err != nil {
		return sharing.Value{}, newErr("P2A", ShapeMismatch, "%w", err)
	}
	if ctx.Rank() == 0 {
		if err := ring.Add(share, x.Tensor, share); err != nil {
			return sharing.Value{}, newErr("P2A", ShapeMismatch, "%w", err)
		}
	}
	return sharing.MakeAShr(share), nil
}

// A2P opens an additive share to a public value via an all-reduce sum.
func (ctx *Context) A2P(x sharing.Value, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("A2P", FieldMismatch, "%w", err)
	}
	sum, err := ctx.Comm.AllReduce(transport.ADD, x.Tensor, tag)
	if err != nil {
		return sharing.Value{}, newErr("A2P", CommFailure, "%w", err)
	}
	return sharing.MakePub(sum), nil
}

// V2A converts a privately-held value to an additive share. It
// mirrors P2A, except the value's owner (not necessarily rank 0)
// folds the private value into its PRSS-derived share.
func (ctx *Context) V2A(x sharing.Value, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.Priv); err != nil {
		return sharing.Value{}, newErr("V2A", FieldMismatch, "%w", err)
	}
	r0, r1, err := ctx.PRG.GenPrssPair(x.Field(), x.Shape(), prg.Tag(tag))
	if err != nil {
		return sharing.Value{}, newErr("V2A", CommFailure, "prss: %w", err)
	}
	share := ring.New(x.Field(), x.Shape())
	if err := ring.Sub(r0, r1, share); err != nil {
		return sharing.Value{}, newErr("V2A", ShapeMismatch, "%w", err)
	}
	if ctx.Rank() == x.Owner {
		if err := ring.Add(share, x.Tensor, share); err != nil {
			return sharing.Value{}, newErr("V2A", ShapeMismatch, "%w", err)
		}
	}
	return sharing.MakeAShr(share), nil
}

// A2V gathers an additive share at party root and sums it there. Non-
// recipients get back a zero-valued placeholder that carries no
// information: x is leaked only to root.
func (ctx *Context) A2V(x sharing.Value, root int, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("A2V", FieldMismatch, "%w", err)
	}
	vals, err := ctx.Comm.Gather(x.Tensor, root, tag)
	if err != nil {
		return sharing.Value{}, newErr("A2V", CommFailure, "%w", err)
	}
	if ctx.Rank() != root {
		return sharing.MakePriv(ring.New(x.Field(), x.Shape()), root), nil
	}
	sum := ring.New(x.Field(), x.Shape())
	for _, v := range vals {
		if err := ring.Add(sum, v, sum); err != nil {
			return sharing.Value{}, newErr("A2V", ShapeMismatch, "%w", err)
		}
	}
	return sharing.MakePriv(sum, root), nil
}

// NegateA negates an additive share locally: each party negates its
// own summand.
func (ctx *Context) NegateA(x sharing.Value) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("NegateA", FieldMismatch, "%w", err)
	}
	out := ring.New(x.Field(), x.Shape())
	if err := ring.Neg(x.Tensor, out); err != nil {
		return sharing.Value{}, newErr("NegateA", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}
