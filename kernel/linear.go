package kernel

import (
	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
)

// AddAP adds a public tensor to an additive share: only rank 0 folds
// p into its own summand, so the sum of shares still equals a+p.
func (ctx *Context) AddAP(a, p sharing.Value) (sharing.Value, error) {
	if err := a.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("AddAP", FieldMismatch, "%w", err)
	}
	if err := p.CheckKind(sharing.Pub); err != nil {
		return sharing.Value{}, newErr("AddAP", FieldMismatch, "%w", err)
	}
	out := a.Tensor.Clone()
	if ctx.Rank() == 0 {
		if err := ring.Add(out, p.Tensor, out); err != nil {
			return sharing.Value{}, newErr("AddAP", ShapeMismatch, "%w", err)
		}
	}
	return sharing.MakeAShr(out), nil
}

// AddAA adds two additive shares elementwise; purely local.
func (ctx *Context) AddAA(a, b sharing.Value) (sharing.Value, error) {
	if err := a.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("AddAA", FieldMismatch, "%w", err)
	}
	if err := b.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("AddAA", FieldMismatch, "%w", err)
	}
	out := ring.New(a.Field(), a.Shape())
	if err := ring.Add(a.Tensor, b.Tensor, out); err != nil {
		return sharing.Value{}, newErr("AddAA", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}

// MulAP multiplies an additive share by a public tensor elementwise;
// local and linear in the share.
func (ctx *Context) MulAP(a, p sharing.Value) (sharing.Value, error) {
	if err := a.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("MulAP", FieldMismatch, "%w", err)
	}
	if err := p.CheckKind(sharing.Pub); err != nil {
		return sharing.Value{}, newErr("MulAP", FieldMismatch, "%w", err)
	}
	out := ring.New(a.Field(), a.Shape())
	if err := ring.Mul(a.Tensor, p.Tensor, out); err != nil {
		return sharing.Value{}, newErr("MulAP", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}

// MatMulAP computes a@p for an additive share a (m×k) and public
// tensor p (k×n); local and linear in a.
func (ctx *Context) MatMulAP(a, p sharing.Value, m, k, n int) (sharing.Value, error) {
	if err := a.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("MatMulAP", FieldMismatch, "%w", err)
	}
	if err := p.CheckKind(sharing.Pub); err != nil {
		return sharing.Value{}, newErr("MatMulAP", FieldMismatch, "%w", err)
	}
	out := ring.New(a.Field(), ring.Shape{m, n})
	if err := ring.MatMul(a.Tensor, p.Tensor, m, k, n, out); err != nil {
		return sharing.Value{}, newErr("MatMulAP", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}

// LShiftA left-shifts an additive share by a per-axis vector of bit
// counts: bits may name a single uniform shift, one shift per element
// of the tensor's last axis (broadcast over leading axes), or one
// shift per element of the whole tensor. Local and linear modulo the
// ring modulus.
func (ctx *Context) LShiftA(a sharing.Value, bits []uint) (sharing.Value, error) {
	if err := a.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("LShiftA", FieldMismatch, "%w", err)
	}
	numel := a.Tensor.Numel()
	shape := a.Shape()
	last := shape[len(shape)-1]

	var full []uint
	switch len(bits) {
	case numel:
		full = bits
	case 1:
		full = make([]uint, numel)
		for i := range full {
			full[i] = bits[0]
		}
	case last:
		full = make([]uint, numel)
		for i := range full {
			full[i] = bits[i%last]
		}
	default:
		return sharing.Value{}, newErr("LShiftA", InvalidParameter,
			"bits length %d matches neither numel %d, 1, nor last axis %d", len(bits), numel, last)
	}

	out := ring.New(a.Field(), shape)
	if err := ring.LShiftVec(a.Tensor, full, out); err != nil {
		return sharing.Value{}, newErr("LShiftA", ShapeMismatch, "%w", err)
	}
	return sharing.MakeAShr(out), nil
}
