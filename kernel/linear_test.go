package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
)

func TestAddAPAddsOnceAcrossParties(t *testing.T) {
	h := newHarness(t, 3)
	shares := splitSecret(ring.F64, ring.Shape{1}, u64(5), 3)
	pub := sharing.MakePub(scalarF64(3))

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.AddAP(shares[rank], pub)
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, out)
	require.Equal(t, u64(8), opened.U64[0])
}

func TestAddAA(t *testing.T) {
	h := newHarness(t, 3)
	a := splitSecret(ring.F64, ring.Shape{1}, u64(5), 3)
	b := splitSecret(ring.F64, ring.Shape{1}, u64(-2), 3)

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.AddAA(a[rank], b[rank])
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, out)
	require.Equal(t, u64(3), opened.U64[0])
}

func TestMulAPIsLinear(t *testing.T) {
	h := newHarness(t, 3)
	a := splitSecret(ring.F64, ring.Shape{1}, u64(5), 3)
	pub := sharing.MakePub(scalarF64(4))

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.MulAP(a[rank], pub)
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, out)
	require.Equal(t, u64(20), opened.U64[0])
}

func TestMatMulAP(t *testing.T) {
	h := newHarness(t, 3)
	// a is 1x2 = [1, 2]; p is 2x1 = [3, 4]; a@p = [11]
	aTensor := ring.New(ring.F64, ring.Shape{1, 2})
	aTensor.U64[0], aTensor.U64[1] = 1, 2
	a := splitMatrix(aTensor, 3)

	p := ring.New(ring.F64, ring.Shape{2, 1})
	p.U64[0], p.U64[1] = 3, 4
	pub := sharing.MakePub(p)

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.MatMulAP(a[rank], pub, 1, 2, 1)
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1, 1}, out)
	require.Equal(t, u64(11), opened.U64[0])
}

func TestLShiftAUniform(t *testing.T) {
	h := newHarness(t, 2)
	a := splitSecret(ring.F64, ring.Shape{1}, u64(3), 2)

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.LShiftA(a[rank], []uint{2})
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, out)
	require.Equal(t, u64(12), opened.U64[0])
}

func TestLShiftAPerElement(t *testing.T) {
	h := newHarness(t, 2)
	vec := ring.New(ring.F64, ring.Shape{3})
	vec.U64[0], vec.U64[1], vec.U64[2] = 1, 1, 1
	a := splitMatrix(vec, 2)

	out := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.LShiftA(a[rank], []uint{0, 1, 2})
	})
	opened := reconstruct(t, ring.F64, ring.Shape{3}, out)
	require.Equal(t, []uint64{1, 2, 4}, opened.U64)
}

func TestLShiftARejectsMismatchedLength(t *testing.T) {
	h := newHarness(t, 2)
	a := splitSecret(ring.F64, ring.Shape{3}, u64(1), 2)

	_, err := h.ctxs[0].LShiftA(a[0], []uint{1, 2})
	require.Error(t, err)
}

// splitMatrix splits an arbitrary plaintext tensor into n additive
// shares the same way splitSecret does for scalars.
func splitMatrix(plain *ring.Tensor, n int) []sharing.Value {
	shares := make([]*ring.Tensor, n)
	sum := ring.New(plain.Field, plain.Shape)
	for i := 0; i < n-1; i++ {
		shares[i] = ring.New(plain.Field, plain.Shape)
		for j := range shares[i].U64 {
			shares[i].U64[j] = uint64(i+1) * 1000 * uint64(j+1)
		}
		ring.Add(sum, shares[i], sum)
	}
	last := ring.New(plain.Field, plain.Shape)
	ring.Sub(plain, sum, last)
	shares[n-1] = last

	out := make([]sharing.Value, n)
	for i, s := range shares {
		out[i] = sharing.MakeAShr(s)
	}
	return out
}
