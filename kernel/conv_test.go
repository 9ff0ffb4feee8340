package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
)

func u64(v int64) uint64 { return uint64(v) }

func scalarF64(v int64) *ring.Tensor {
	return ring.Fill(ring.F64, ring.Shape{1}, u64(v))
}

// splitSecret builds a test-only additive sharing of secret across n
// parties: arbitrary nonzero summands for all but the last party, and
// whatever balances the sum for the last. It has no relation to the
// Beaver provider's own sharing and exists purely to seed kernel tests
// with shares of a known plaintext.
func splitSecret(f ring.Field, shape ring.Shape, secret uint64, n int) []sharing.Value {
	shares := make([]*ring.Tensor, n)
	sum := ring.New(f, shape)
	for i := 0; i < n-1; i++ {
		shares[i] = ring.Fill(f, shape, uint64(1000+i)*7+3)
		ring.Add(sum, shares[i], sum)
	}
	secretT := ring.Fill(f, shape, secret)
	last := ring.New(f, shape)
	ring.Sub(secretT, sum, last)
	shares[n-1] = last

	out := make([]sharing.Value, n)
	for i, s := range shares {
		out[i] = sharing.MakeAShr(s)
	}
	return out
}

func TestP2ARoundTrip(t *testing.T) {
	h := newHarness(t, 3)
	pub := scalarF64(7)

	shares := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.P2A(sharing.MakePub(pub), "p2a")
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, shares)
	require.Equal(t, u64(7), opened.U64[0])

	pubResults := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.A2P(shares[rank], "a2p")
	})
	for _, r := range pubResults {
		require.NoError(t, r.CheckKind(sharing.Pub))
		require.Equal(t, u64(7), r.Tensor.U64[0])
	}
}

func TestV2ARoundTrip(t *testing.T) {
	h := newHarness(t, 3)
	const owner = 1
	priv := sharing.MakePriv(scalarF64(-12), owner)

	shares := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		var in sharing.Value
		if rank == owner {
			in = priv
		} else {
			in = sharing.MakePriv(ring.New(ring.F64, ring.Shape{1}), owner)
		}
		return ctx.V2A(in, "v2a")
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, shares)
	require.Equal(t, u64(-12), opened.U64[0])
}

func TestA2VRevealsOnlyToRoot(t *testing.T) {
	h := newHarness(t, 3)
	const root = 2
	shares := splitSecret(ring.F64, ring.Shape{1}, u64(42), 3)

	results := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.A2V(shares[rank], root, "a2v")
	})
	for i, r := range results {
		require.NoError(t, r.CheckKind(sharing.Priv))
		require.Equal(t, root, r.Owner)
		if i == root {
			require.Equal(t, u64(42), r.Tensor.U64[0])
		}
	}
}

func TestNegateA(t *testing.T) {
	h := newHarness(t, 2)
	shares := splitSecret(ring.F64, ring.Shape{1}, u64(9), 2)

	negated := run(t, h, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.NegateA(shares[rank])
	})
	opened := reconstruct(t, ring.F64, ring.Shape{1}, negated)
	require.Equal(t, u64(-9), opened.U64[0])
}

func TestRandADeterministicPerTag(t *testing.T) {
	h1 := newHarness(t, 3)
	h2 := newHarness(t, 3)

	a := run(t, h1, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.RandA(ring.F64, ring.Shape{1}, "seed/tag")
	})
	b := run(t, h2, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.RandA(ring.F64, ring.Shape{1}, "seed/tag")
	})
	for i := range a {
		require.Equal(t, a[i].Tensor.U64[0], b[i].Tensor.U64[0], "party %d", i)
	}

	c := run(t, h1, func(ctx *Context, rank int) (sharing.Value, error) {
		return ctx.RandA(ring.F64, ring.Shape{1}, "a different tag")
	})
	differs := false
	for i := range a {
		if a[i].Tensor.U64[0] != c[i].Tensor.U64[0] {
			differs = true
		}
	}
	require.True(t, differs, "different tags should draw different masks")
}
