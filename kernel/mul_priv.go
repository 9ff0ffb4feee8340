package kernel

import (
	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
)

// MulVVS multiplies two privately-held values belonging to different
// owners and returns an additive share of the product, without either
// owner learning the other's input. Two parties only: the provider's
// MulPriv deals a correlated pair keyed by rank (0 and 1), not by
// owner identity, so the protocol below picks each rank's own private
// input out of whichever of x/y it owns.
func (ctx *Context) MulVVS(x, y sharing.Value, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.Priv); err != nil {
		return sharing.Value{}, newErr("MulVVS", FieldMismatch, "%w", err)
	}
	if err := y.CheckKind(sharing.Priv); err != nil {
		return sharing.Value{}, newErr("MulVVS", FieldMismatch, "%w", err)
	}
	if x.Owner == y.Owner {
		return sharing.Value{}, newErr("MulVVS", InvalidRank, "both operands owned by rank %d", x.Owner)
	}
	if ctx.WorldSize() != 2 {
		return sharing.Value{}, newErr("MulVVS", InvalidRank, "MulVVS requires exactly two parties, got %d", ctx.WorldSize())
	}
	if (x.Owner != 0 && x.Owner != 1) || (y.Owner != 0 && y.Owner != 1) {
		return sharing.Value{}, newErr("MulVVS", InvalidRank, "owners must be 0 or 1, got %d and %d", x.Owner, y.Owner)
	}
	if err := ring.SameShapeField(x.Tensor, y.Tensor); err != nil {
		return sharing.Value{}, newErr("MulVVS", ShapeMismatch, "%w", err)
	}

	rank := ctx.Rank()
	field, shape := x.Field(), x.Shape()

	var myInput *ring.Tensor
	switch rank {
	case x.Owner:
		myInput = x.Tensor
	case y.Owner:
		myInput = y.Tensor
	default:
		return sharing.Value{}, newErr("MulVVS", InvalidRank, "rank %d owns neither operand", rank)
	}

	a, c, err := ctx.Provider.MulPriv(rank, field, shape, tag)
	if err != nil {
		return sharing.Value{}, newErr("MulVVS", ProviderViolation, "%w", err)
	}

	envelope := ring.New(field, shape)
	ring.Add(a, myInput, envelope)

	peer := 1 - rank
	if err := ctx.Comm.SendAsync(peer, envelope, tag); err != nil {
		return sharing.Value{}, newErr("MulVVS", CommFailure, "%w", err)
	}
	received, err := ctx.Comm.Recv(peer, field, shape, tag)
	if err != nil {
		return sharing.Value{}, newErr("MulVVS", CommFailure, "%w", err)
	}

	out := ring.New(field, shape)
	if rank == 0 {
		ring.Mul(received, myInput, out)
	} else {
		neg := ring.New(field, shape)
		ring.Neg(a, neg)
		ring.Mul(neg, received, out)
	}
	ring.Add(out, c, out)
	return sharing.MakeAShr(out), nil
}
