package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privacystack/ringshare/ring"
)

func TestAllReduceSumsAcrossParties(t *testing.T) {
	n := 3
	net := NewLoopbackNetwork(n)

	var wg sync.WaitGroup
	results := make([]*ring.Tensor, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			p := net.Party(rank)
			local := ring.New(ring.F64, ring.Shape{2})
			local.U64[0], local.U64[1] = uint64(rank+1), uint64(2*(rank+1))
			res, err := p.AllReduce(ADD, local, "sum")
			require.NoError(t, err)
			results[rank] = res
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, []uint64{6, 12}, results[i].U64)
	}
}

func TestSendRecv(t *testing.T) {
	net := NewLoopbackNetwork(2)
	p0 := net.Party(0)
	p1 := net.Party(1)

	msg := ring.New(ring.F32, ring.Shape{1})
	msg.U32[0] = 42

	var wg sync.WaitGroup
	wg.Add(1)
	var got *ring.Tensor
	go func() {
		defer wg.Done()
		var err error
		got, err = p1.Recv(0, ring.F32, ring.Shape{1}, "hello")
		require.NoError(t, err)
	}()
	require.NoError(t, p0.SendAsync(1, msg, "hello"))
	wg.Wait()

	require.Equal(t, uint32(42), got.U32[0])
}

func TestGatherOnlyRootSees(t *testing.T) {
	n := 3
	net := NewLoopbackNetwork(n)

	var wg sync.WaitGroup
	gathered := make([][]*ring.Tensor, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			p := net.Party(rank)
			local := ring.New(ring.F64, ring.Shape{1})
			local.U64[0] = uint64(rank)
			vals, err := p.Gather(local, 0, "gather")
			require.NoError(t, err)
			gathered[rank] = vals
		}(i)
	}
	wg.Wait()

	require.Len(t, gathered[0], n)
	for i := 1; i < n; i++ {
		require.Nil(t, gathered[i])
	}
}

func TestAllReduceRoundsAreCounted(t *testing.T) {
	net := NewLoopbackNetwork(2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			p := net.Party(rank)
			_, err := p.AllReduce(ADD, ring.New(ring.F64, ring.Shape{1}), "t1")
			require.NoError(t, err)
			require.Equal(t, 1, p.Stats().Rounds)
		}(i)
	}
	wg.Wait()
}
