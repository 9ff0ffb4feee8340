package beaver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privacystack/ringshare/ring"
)

func reconstruct(t *testing.T, f ring.Field, shape ring.Shape, shares []*ring.Tensor) *ring.Tensor {
	t.Helper()
	sum := ring.New(f, shape)
	for _, s := range shares {
		require.NoError(t, ring.Add(sum, s, sum))
	}
	return sum
}

func newDealer(t *testing.T, n int) *TrustedDealer {
	t.Helper()
	d, err := NewTrustedDealer([]byte("a fixed dealer seed for testing purposes"), n)
	require.NoError(t, err)
	return d
}

func TestMulTripleCorrect(t *testing.T) {
	n := 3
	d := newDealer(t, n)
	shape := ring.Shape{4}

	var as, bs, cs []*ring.Tensor
	for rank := 0; rank < n; rank++ {
		a, b, c, err := d.Mul(rank, ring.F64, shape, "mul1", "", "")
		require.NoError(t, err)
		as, bs, cs = append(as, a), append(bs, b), append(cs, c)
	}

	A := reconstruct(t, ring.F64, shape, as)
	B := reconstruct(t, ring.F64, shape, bs)
	C := reconstruct(t, ring.F64, shape, cs)

	want := ring.New(ring.F64, shape)
	require.NoError(t, ring.Mul(A, B, want))
	require.Equal(t, want.U64, C.U64)
}

func TestMulReplayReproducesA(t *testing.T) {
	d := newDealer(t, 2)
	shape := ring.Shape{3}

	a1, _, _, err := d.Mul(0, ring.F32, shape, "mul-x", "sticky-a", "")
	require.NoError(t, err)
	a2, _, _, err := d.Mul(0, ring.F32, shape, "mul-y", "sticky-a", "")
	require.NoError(t, err)
	require.Equal(t, a1.U32, a2.U32, "replaying aTag must reproduce the same mask share")
}

func TestDotTripleCorrect(t *testing.T) {
	n := 2
	d := newDealer(t, n)
	m, k, nn := 2, 3, 2

	var as, bs, cs []*ring.Tensor
	for rank := 0; rank < n; rank++ {
		a, b, c, err := d.Dot(rank, ring.F64, m, nn, k, "dot1", "", "")
		require.NoError(t, err)
		as, bs, cs = append(as, a), append(bs, b), append(cs, c)
	}

	A := reconstruct(t, ring.F64, ring.Shape{m, k}, as)
	B := reconstruct(t, ring.F64, ring.Shape{k, nn}, bs)
	C := reconstruct(t, ring.F64, ring.Shape{m, nn}, cs)

	want := ring.New(ring.F64, ring.Shape{m, nn})
	require.NoError(t, ring.MatMul(A, B, m, k, nn, want))
	require.Equal(t, want.U64, C.U64)
}

func TestSquareTripleCorrect(t *testing.T) {
	n := 3
	d := newDealer(t, n)
	shape := ring.Shape{5}

	var as, a2s []*ring.Tensor
	for rank := 0; rank < n; rank++ {
		a, a2, err := d.Square(rank, ring.F64, shape, "sq1", "")
		require.NoError(t, err)
		as, a2s = append(as, a), append(a2s, a2)
	}

	A := reconstruct(t, ring.F64, shape, as)
	A2 := reconstruct(t, ring.F64, shape, a2s)

	want := ring.New(ring.F64, shape)
	require.NoError(t, ring.Mul(A, A, want))
	require.Equal(t, want.U64, A2.U64)
}

func TestMulPrivCorrect(t *testing.T) {
	d := newDealer(t, 2)
	shape := ring.Shape{4}

	a0, c0, err := d.MulPriv(0, ring.F64, shape, "priv1")
	require.NoError(t, err)
	a1, c1, err := d.MulPriv(1, ring.F64, shape, "priv1")
	require.NoError(t, err)

	lhs := ring.New(ring.F64, shape)
	require.NoError(t, ring.Mul(a0, a1, lhs))
	rhs := ring.New(ring.F64, shape)
	require.NoError(t, ring.Add(c0, c1, rhs))
	require.Equal(t, lhs.U64, rhs.U64)
}

func TestMulPrivRejectsOtherRanks(t *testing.T) {
	d := newDealer(t, 3)
	_, _, err := d.MulPriv(2, ring.F64, ring.Shape{1}, "priv2")
	require.Error(t, err)
}

func TestTruncTripleCorrect(t *testing.T) {
	n := 3
	d := newDealer(t, n)
	shape := ring.Shape{4}
	bits := 8

	var rs, rss []*ring.Tensor
	for rank := 0; rank < n; rank++ {
		r, rShift, err := d.Trunc(rank, ring.F64, shape, bits, "trunc1")
		require.NoError(t, err)
		rs, rss = append(rs, r), append(rss, rShift)
	}

	R := reconstruct(t, ring.F64, shape, rs)
	RS := reconstruct(t, ring.F64, shape, rss)

	want := ring.New(ring.F64, shape)
	require.NoError(t, ring.RShift(R, uint(bits), want))
	require.Equal(t, want.U64, RS.U64)
}

func TestTruncPrTripleCorrect(t *testing.T) {
	n := 2
	d := newDealer(t, n)
	shape := ring.Shape{4}
	bits := 10

	var rs, rcs, rbs []*ring.Tensor
	for rank := 0; rank < n; rank++ {
		r, rc, rb, err := d.TruncPr(rank, ring.F64, shape, bits, "truncpr1")
		require.NoError(t, err)
		rs, rcs, rbs = append(rs, r), append(rcs, rc), append(rbs, rb)
	}

	R := reconstruct(t, ring.F64, shape, rs)
	RC := reconstruct(t, ring.F64, shape, rcs)
	RB := reconstruct(t, ring.F64, shape, rbs)

	wantRC := ring.New(ring.F64, shape)
	require.NoError(t, ring.Mask(R, 63, wantRC))
	require.NoError(t, ring.RShift(wantRC, uint(bits), wantRC))
	require.Equal(t, wantRC.U64, RC.U64)

	wantRB := ring.New(ring.F64, shape)
	require.NoError(t, ring.RShift(R, 63, wantRB))
	require.NoError(t, ring.Mask(wantRB, 1, wantRB))
	require.Equal(t, wantRB.U64, RB.U64)
	for _, bit := range RB.U64 {
		require.True(t, bit == 0 || bit == 1)
	}
}
