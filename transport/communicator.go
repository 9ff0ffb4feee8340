// Package transport defines the Communicator external collaborator
// and ships an in-process LoopbackNetwork reference implementation
// used by the kernel's own tests and by embedders that have not yet
// wired a real network fabric.
package transport

import "github.com/privacystack/ringshare/ring"

// ReduceOp names a collective reduction operator. The kernel only
// ever uses Add, but the interface leaves room for a production
// Communicator that also offers e.g. XOR for boolean collectives.
type ReduceOp int

// ADD is the only reduction operator the kernel drives.
const ADD ReduceOp = 0

// Communicator is the point-to-point and collective transport the
// kernel opens masked values and reconstructs plaintexts through. All
// methods are suspension points: nothing else in the kernel blocks.
type Communicator interface {
	Rank() int
	WorldSize() int
	NextRank() int
	PrevRank() int

	// AllReduce sums t across every party under op and returns the
	// identical result on every party.
	AllReduce(op ReduceOp, t *ring.Tensor, tag string) (*ring.Tensor, error)

	// Gather collects local from every party at root. Non-root callers
	// receive nil. The returned slice is indexed by rank.
	Gather(local *ring.Tensor, root int, tag string) ([]*ring.Tensor, error)

	// SendAsync enqueues t for delivery to peer under tag and returns
	// without waiting for the peer to receive it.
	SendAsync(peer int, t *ring.Tensor, tag string) error

	// Recv blocks until a tensor of the given field/shape tagged tag
	// has arrived from peer.
	Recv(peer int, f ring.Field, shape ring.Shape, tag string) (*ring.Tensor, error)

	// AddCommStatsManually records additional communication rounds and
	// bits against this party's running totals, for call sites that
	// move data outside the Communicator's own methods and must still
	// account for it. The kernel's Beaver cache replay path does not
	// call it: a cache hit adds nothing to the totals.
	AddCommStatsManually(rounds int, bits int64)
}
