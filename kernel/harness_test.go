package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/privacystack/ringshare/beaver"
	"github.com/privacystack/ringshare/prg"
	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
	"github.com/privacystack/ringshare/transport"
)

// harness is an in-process N-party evaluation: one *Context per
// simulated party, sharing a LoopbackNetwork and a TrustedDealer.
type harness struct {
	n       int
	ctxs    []*Context
	net     *transport.LoopbackNetwork
	parties []*transport.Party
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	net := transport.NewLoopbackNetwork(n)
	dealer, err := beaver.NewTrustedDealer([]byte("a fixed trusted-dealer seed used only in tests"), n)
	require.NoError(t, err)
	root := []byte("a fixed cluster root secret used only in tests")

	ctxs := make([]*Context, n)
	parties := make([]*transport.Party, n)
	for i := 0; i < n; i++ {
		svc, err := prg.NewService(root, i, n)
		require.NoError(t, err)
		parties[i] = net.Party(i)
		ctxs[i] = NewContext(parties[i], svc, dealer)
	}
	return &harness{n: n, ctxs: ctxs, net: net, parties: parties}
}

// run calls fn once per party concurrently (required so collectives
// like AllReduce/Gather can complete their barriers) and returns each
// party's result, failing the test immediately if any party errored.
func run[T any](t *testing.T, h *harness, fn func(ctx *Context, rank int) (T, error)) []T {
	t.Helper()
	results := make([]T, h.n)
	var g errgroup.Group
	for i := 0; i < h.n; i++ {
		rank := i
		g.Go(func() error {
			r, err := fn(h.ctxs[rank], rank)
			results[rank] = r
			return err
		})
	}
	require.NoError(t, g.Wait())
	return results
}

// reconstruct sums a set of AShr tensors locally, the test-only
// equivalent of A2P that doesn't spend a round.
func reconstruct(t *testing.T, f ring.Field, shape ring.Shape, shares []sharing.Value) *ring.Tensor {
	t.Helper()
	sum := ring.New(f, shape)
	for _, s := range shares {
		require.NoError(t, s.CheckKind(sharing.AShr))
		require.NoError(t, ring.Add(sum, s.Tensor, sum))
	}
	return sum
}
