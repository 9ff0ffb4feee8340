package transport

import (
	"fmt"
	"sync"

	"github.com/privacystack/ringshare/ring"
)

// LoopbackNetwork simulates worldSize parties cooperating in a single
// process, one goroutine per party, driving N simulated parties
// through identical collective calls without a real socket layer.
// Every party's view of the network is a *Party obtained from
// Party(rank).
type LoopbackNetwork struct {
	n int

	mu        sync.Mutex
	barriers  map[string]*barrier
	inboxes   map[inboxKey]chan *ring.Tensor
	gatherMus map[string]*gatherState
}

// NewLoopbackNetwork creates a network for worldSize simulated
// parties.
func NewLoopbackNetwork(worldSize int) *LoopbackNetwork {
	return &LoopbackNetwork{
		n:         worldSize,
		barriers:  make(map[string]*barrier),
		inboxes:   make(map[inboxKey]chan *ring.Tensor),
		gatherMus: make(map[string]*gatherState),
	}
}

// Party returns the Communicator view of this network for the given
// rank.
func (net *LoopbackNetwork) Party(rank int) *Party {
	return &Party{net: net, rank: rank, stats: &Stats{}}
}

type inboxKey struct {
	src, dst int
	tag      string
}

// barrier implements a single collective round: every party
// contributes a tensor under the same tag, the last arrival computes
// the reduction, and all parties read the shared result before the
// barrier is torn down so the tag can be reused by the next round.
type barrier struct {
	mu      sync.Mutex
	n       int
	vals    []*ring.Tensor
	ready   chan struct{}
	result  *ring.Tensor
	readers int
}

func (net *LoopbackNetwork) getBarrier(tag string) *barrier {
	net.mu.Lock()
	defer net.mu.Unlock()
	b, ok := net.barriers[tag]
	if !ok {
		b = &barrier{n: net.n, ready: make(chan struct{})}
		net.barriers[tag] = b
	}
	return b
}

func (net *LoopbackNetwork) dropBarrier(tag string) {
	net.mu.Lock()
	delete(net.barriers, tag)
	net.mu.Unlock()
}

// allReduceAdd implements Communicator.AllReduce(ADD, ...) for the
// loopback network.
func (net *LoopbackNetwork) allReduceAdd(t *ring.Tensor, tag string) (*ring.Tensor, error) {
	b := net.getBarrier(tag)

	b.mu.Lock()
	b.vals = append(b.vals, t)
	last := len(b.vals) == b.n
	if last {
		sum := ring.New(t.Field, t.Shape)
		for _, v := range b.vals {
			if err := ring.SameShapeField(sum, v); err != nil {
				b.mu.Unlock()
				return nil, fmt.Errorf("transport: allReduce %q: %w", tag, err)
			}
			if err := ring.Add(sum, v, sum); err != nil {
				b.mu.Unlock()
				return nil, err
			}
		}
		b.result = sum
		close(b.ready)
	}
	b.mu.Unlock()

	<-b.ready

	b.mu.Lock()
	result := b.result
	b.readers++
	done := b.readers == b.n
	b.mu.Unlock()

	if done {
		net.dropBarrier(tag)
	}
	return result.Clone(), nil
}

type gatherState struct {
	mu      sync.Mutex
	n       int
	values  []*ring.Tensor
	ready   chan struct{}
	readers int
}

func (net *LoopbackNetwork) getGather(tag string) *gatherState {
	net.mu.Lock()
	defer net.mu.Unlock()
	g, ok := net.gatherMus[tag]
	if !ok {
		g = &gatherState{n: net.n, values: make([]*ring.Tensor, net.n), ready: make(chan struct{})}
		net.gatherMus[tag] = g
	}
	return g
}

func (net *LoopbackNetwork) dropGather(tag string) {
	net.mu.Lock()
	delete(net.gatherMus, tag)
	net.mu.Unlock()
}

func (net *LoopbackNetwork) gather(rank int, local *ring.Tensor, root int, tag string) ([]*ring.Tensor, error) {
	g := net.getGather(tag)

	g.mu.Lock()
	g.values[rank] = local
	arrived := 0
	for _, v := range g.values {
		if v != nil {
			arrived++
		}
	}
	if arrived == g.n {
		close(g.ready)
	}
	g.mu.Unlock()

	<-g.ready

	g.mu.Lock()
	g.readers++
	done := g.readers == g.n
	values := g.values
	g.mu.Unlock()

	if done {
		net.dropGather(tag)
	}

	if rank != root {
		return nil, nil
	}
	return values, nil
}

func (net *LoopbackNetwork) inbox(src, dst int, tag string) chan *ring.Tensor {
	key := inboxKey{src: src, dst: dst, tag: tag}
	net.mu.Lock()
	defer net.mu.Unlock()
	ch, ok := net.inboxes[key]
	if !ok {
		ch = make(chan *ring.Tensor, 1)
		net.inboxes[key] = ch
	}
	return ch
}

// Party is one simulated party's Communicator handle onto a
// LoopbackNetwork.
type Party struct {
	net   *LoopbackNetwork
	rank  int
	stats *Stats
}

// Rank implements Communicator.
func (p *Party) Rank() int { return p.rank }

// WorldSize implements Communicator.
func (p *Party) WorldSize() int { return p.net.n }

// NextRank implements Communicator.
func (p *Party) NextRank() int { return (p.rank + 1) % p.net.n }

// PrevRank implements Communicator.
func (p *Party) PrevRank() int { return (p.rank - 1 + p.net.n) % p.net.n }

// AllReduce implements Communicator.
func (p *Party) AllReduce(op ReduceOp, t *ring.Tensor, tag string) (*ring.Tensor, error) {
	if op != ADD {
		return nil, fmt.Errorf("transport: unsupported reduce op %d", op)
	}
	p.stats.recordRound(t)
	return p.net.allReduceAdd(t, tag)
}

// Gather implements Communicator.
func (p *Party) Gather(local *ring.Tensor, root int, tag string) ([]*ring.Tensor, error) {
	p.stats.recordRound(local)
	return p.net.gather(p.rank, local, root, tag)
}

// SendAsync implements Communicator.
func (p *Party) SendAsync(peer int, t *ring.Tensor, tag string) error {
	p.stats.recordRound(t)
	p.net.inbox(p.rank, peer, tag) <- t.Clone()
	return nil
}

// Recv implements Communicator.
func (p *Party) Recv(peer int, f ring.Field, shape ring.Shape, tag string) (*ring.Tensor, error) {
	t := <-p.net.inbox(peer, p.rank, tag)
	if err := ring.SameShapeField(t, ring.New(f, shape)); err != nil {
		return nil, fmt.Errorf("transport: recv %q from %d: %w", tag, peer, err)
	}
	return t, nil
}

// AddCommStatsManually implements Communicator.
func (p *Party) AddCommStatsManually(rounds int, bits int64) {
	p.stats.mu.Lock()
	defer p.stats.mu.Unlock()
	p.stats.Rounds += rounds
	p.stats.Bits += bits
}

// Stats returns a snapshot of this party's communication counters.
func (p *Party) Stats() Stats {
	p.stats.mu.Lock()
	defer p.stats.mu.Unlock()
	return Stats{Rounds: p.stats.Rounds, Bits: p.stats.Bits}
}
