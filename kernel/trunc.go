package kernel

import (
	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
	"github.com/privacystack/ringshare/transport"
)

// TruncA shifts an additive share right by bits, losing at most one
// unit to rounding (SecureML Thm. 1). With exactly two parties each
// party can arithmetic-shift its own summand locally; with more than
// two, a truncation pair from the provider plus one open is needed.
// sign is accepted but unused: the protocol's correctness does not
// depend on it, only on the secret lying in the expected range.
func (ctx *Context) TruncA(x sharing.Value, bits uint, sign bool, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("TruncA", FieldMismatch, "%w", err)
	}
	field, shape := x.Field(), x.Shape()
	if int(bits) > field.Bits() {
		return sharing.Value{}, newErr("TruncA", InvalidParameter, "bits %d exceeds ring width %d", bits, field.Bits())
	}

	if ctx.WorldSize() == 2 {
		out := ring.New(field, shape)
		if err := ring.ARShift(x.Tensor, bits, out); err != nil {
			return sharing.Value{}, newErr("TruncA", ShapeMismatch, "%w", err)
		}
		return sharing.MakeAShr(out), nil
	}

	r, rShift, err := ctx.Provider.Trunc(ctx.Rank(), field, shape, int(bits), tag)
	if err != nil {
		return sharing.Value{}, newErr("TruncA", ProviderViolation, "%w", err)
	}
	diff := ring.New(field, shape)
	ring.Sub(x.Tensor, r, diff)
	opened, err := ctx.Comm.AllReduce(transport.ADD, diff, tag+"/open")
	if err != nil {
		return sharing.Value{}, newErr("TruncA", CommFailure, "%w", err)
	}
	shifted := ring.New(field, shape)
	ring.RShift(opened, bits, shifted)

	out := rShift.Clone()
	if ctx.Rank() == 0 {
		ring.Add(out, shifted, out)
	}
	return sharing.MakeAShr(out), nil
}

// TruncAPr probabilistically truncates an additive share, correct
// except for a bias of at most one unit in the last place. It
// consumes a probabilistic-truncation triple (r, r_c, r_b) from the
// provider and implements the bit-decomposition trick of SecureML
// §3.4: bias the secret into the non-negative half, open it masked by
// r, recover the carry out of the truncated bits via the opened
// value's own top bit, and correct r_c by that carry.
func (ctx *Context) TruncAPr(x sharing.Value, bits uint, sign bool, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("TruncAPr", FieldMismatch, "%w", err)
	}
	field, shape := x.Field(), x.Shape()
	k := field.Bits()
	m := int(bits)
	if m > k-2 {
		return sharing.Value{}, newErr("TruncAPr", InvalidParameter, "bits %d exceeds k-2=%d", m, k-2)
	}

	r, rC, rB, err := ctx.Provider.TruncPr(ctx.Rank(), field, shape, m, tag)
	if err != nil {
		return sharing.Value{}, newErr("TruncAPr", ProviderViolation, "%w", err)
	}

	bias := ring.Pow2(field, shape, uint(k-2))
	xBiased := x.Tensor.Clone()
	if ctx.Rank() == 0 {
		ring.Add(xBiased, bias, xBiased)
	}

	local := ring.New(field, shape)
	ring.Add(xBiased, r, local)
	c, err := ctx.Comm.AllReduce(transport.ADD, local, tag+"/open-c")
	if err != nil {
		return sharing.Value{}, newErr("TruncAPr", CommFailure, "%w", err)
	}

	cMsb := ring.New(field, shape)
	ring.RShift(c, uint(k-1), cMsb)
	ring.Mask(cMsb, 1, cMsb)

	twoMsbRb := ring.New(field, shape)
	ring.Mul(cMsb, rB, twoMsbRb)
	ring.LShift(twoMsbRb, 1, twoMsbRb)
	b := ring.New(field, shape)
	ring.Sub(rB, twoMsbRb, b)
	if ctx.Rank() == 0 {
		ring.Add(b, cMsb, b)
	}

	chat := ring.New(field, shape)
	ring.LShift(c, 1, chat)
	ring.RShift(chat, uint(m+1), chat)

	bScaled := ring.New(field, shape)
	ring.LShift(b, uint(k-1-m), bScaled)

	out := ring.New(field, shape)
	ring.Sub(bScaled, rC, out)
	if ctx.Rank() == 0 {
		ring.Add(out, chat, out)
		corrConst := ring.Pow2(field, shape, uint(k-2-m))
		ring.Sub(out, corrConst, out)
	}
	return sharing.MakeAShr(out), nil
}

// smallestField returns the narrowest supported ring whose width
// covers m bits.
func smallestField(m int) (ring.Field, error) {
	switch {
	case m <= 32:
		return ring.F32, nil
	case m <= 64:
		return ring.F64, nil
	case m <= 128:
		return ring.F128, nil
	default:
		return 0, newErr("TruncAPr2", InvalidParameter, "bits %d exceeds largest supported ring", m)
	}
}

// computeMW evaluates the two-party modular-wrap indicator
// MW(x0,x1,L) = Wrap(x0,x1,L) + msb(x) - msb(x0) - msb(x1), as an
// additive share in the narrower truncation field f2. Wrap(x0,x1,L)
// is the carry out of the raw (unreduced) sum x0+x1 and msb(x) is the
// top bit of the reconstructed secret. For |x| < 2^(k-2) their sum is
// what a carry-detection comparison on each party's own share yields
// once the two comparison results are multiplied together via MulVVS
// (private×private, since each comparison result is known only to
// the party that computed it) and rank 0 adds its correction for the
// case where its own share already underflowed the bias window. Each
// party then subtracts the most-significant bit of its own share
// locally — no extra round needed, since msb(x_i) depends only on
// party i's own data — which cancels the sign-extension each party's
// local arithmetic shift already baked in for its own share.
func (ctx *Context) computeMW(x sharing.Value, f2 ring.Field, tag string) (sharing.Value, error) {
	field, shape := x.Field(), x.Shape()
	k := field.Bits()
	quarter := ring.Pow2(field, shape, uint(k-2))
	half := ring.Pow2(field, shape, uint(k-1))

	rank := ctx.Rank()
	var starBool *ring.Tensor
	switch rank {
	case 0:
		shifted := ring.New(field, shape)
		ring.Sub(x.Tensor, quarter, shifted)
		starBool = ring.New(field, shape)
		ring.CompareGE(shifted, half, starBool)
	case 1:
		starBool = ring.New(field, shape)
		ring.CompareGE(x.Tensor, half, starBool)
	default:
		return sharing.Value{}, newErr("computeMW", InvalidRank, "modular wrap requires rank 0 or 1, got %d", rank)
	}
	starF2 := ring.Cast(starBool, f2)

	var xArg, yArg sharing.Value
	if rank == 0 {
		xArg = sharing.MakePriv(starF2, 0)
		yArg = sharing.MakePriv(ring.New(f2, shape), 1)
	} else {
		xArg = sharing.MakePriv(ring.New(f2, shape), 0)
		yArg = sharing.MakePriv(starF2, 1)
	}
	product, err := ctx.MulVVS(xArg, yArg, tag+"/mulvvs")
	if err != nil {
		return sharing.Value{}, err
	}

	if rank == 0 {
		geQuarter := ring.New(field, shape)
		ring.CompareGE(x.Tensor, quarter, geQuarter)
		corr := ring.Cast(geQuarter, f2)
		ring.Add(product.Tensor, corr, product.Tensor)
	}

	msb := ring.New(field, shape)
	ring.RShift(x.Tensor, uint(k-1), msb)
	ring.Mask(msb, 1, msb)
	msbF2 := ring.Cast(msb, f2)
	ring.Sub(product.Tensor, msbF2, product.Tensor)

	return product, nil
}

// TruncAPr2 truncates an additive share for exactly two parties with
// one-bit error, using the geometric/modular-wrap method: the wrap
// correction is computed in a narrower field sized to cover bits, and
// then re-embedded into the secret's native field before being
// subtracted off each party's locally shifted share. Each party's
// local arithmetic shift of its own share already sign-extends using
// that share's own top bit; subtracting MW (which nets out
// Wrap(x0,x1,L) + msb(x) against both parties' own msb contributions) is
// exactly what reconciles that per-share shift with the shift of the
// reconstructed secret, which is why the all-zero sharing reduces to
// output 0 on both parties with no further constant term needed.
func (ctx *Context) TruncAPr2(x sharing.Value, bits uint, sign bool, tag string) (sharing.Value, error) {
	if err := x.CheckKind(sharing.AShr); err != nil {
		return sharing.Value{}, newErr("TruncAPr2", FieldMismatch, "%w", err)
	}
	if ctx.WorldSize() != 2 {
		return sharing.Value{}, newErr("TruncAPr2", InvalidRank, "TruncAPr2 requires exactly two parties, got %d", ctx.WorldSize())
	}
	field, shape := x.Field(), x.Shape()
	k := field.Bits()
	m := int(bits)

	f2, err := smallestField(m)
	if err != nil {
		return sharing.Value{}, err
	}

	mw, err := ctx.computeMW(x, f2, tag+"/mw")
	if err != nil {
		return sharing.Value{}, err
	}
	mwUp := ring.Cast(mw.Tensor, field)
	ring.LShift(mwUp, uint(k-m), mwUp)

	out := ring.New(field, shape)
	ring.ARShift(x.Tensor, bits, out)
	ring.Sub(out, mwUp, out)

	return sharing.MakeAShr(out), nil
}
