// Package prg implements the kernel's private-randomness and
// correlated-randomness (PRSS) service: a keyed, deterministic
// generator that a party clocks to reproducibly draw uniform ring
// elements. It keys blake3's extendable-output function for the draw
// itself, and derives pairwise PRSS keys from a cluster root secret
// with HKDF (golang.org/x/crypto/hkdf) rather than distributing them
// out of band.
package prg

import (
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/privacystack/ringshare/ring"

	"github.com/zeebo/blake3"
)

// Tag domain-separates a single logical draw (an operation name plus
// enough context to make repeated draws of the same shape diverge).
// It doubles as the opaque replay descriptor the Beaver cache keeps
// for an operand, since re-deriving a draw only requires the seed and
// its Tag: a plain string the provider and cache both understand.
type Tag string

// generatorFor returns a fresh XOF reader keyed by key and personalized
// by tag, using blake3's native keyed mode as the underlying PRF.
func generatorFor(key []byte, tag Tag) io.Reader {
	var k [32]byte
	copy(k[:], key)
	h := blake3.NewKeyed(k[:])
	_, _ = h.Write([]byte(tag))
	return h.Digest()
}

// Draw fills out with a deterministic uniform sample derived from key
// and tag. Two calls with the same (key, tag, field, shape) always
// produce identical tensors — this determinism is what lets the
// Beaver cache regenerate a mask `a` from a stored replay descriptor
// instead of re-opening a share.
func Draw(key []byte, tag Tag, f ring.Field, shape ring.Shape) (*ring.Tensor, error) {
	t := ring.New(f, shape)
	if err := ring.SampleUniform(generatorFor(key, tag), t); err != nil {
		return nil, fmt.Errorf("prg: draw %s: %w", tag, err)
	}
	return t, nil
}

// Service is a party's view of the PRG/PRSS external collaborator: a
// private key known only to this party, plus two pairwise keys shared
// with its ring neighbors for correlated draws.
type Service struct {
	rank, worldSize int
	privKey         []byte
	keyPrev         []byte // shared with (rank-1) mod N
	keyNext         []byte // shared with (rank+1) mod N
}

// NewService derives a party's PRG state from a cluster root secret.
// Every party must be constructed from the same root for the pairwise
// keys to line up; in production the root itself is provisioned out
// of band (e.g. by the same channel that distributes the Beaver
// dealer's seed), not transmitted by this package.
func NewService(root []byte, rank, worldSize int) (*Service, error) {
	if worldSize < 1 || rank < 0 || rank >= worldSize {
		return nil, fmt.Errorf("prg: invalid rank %d of %d", rank, worldSize)
	}
	s := &Service{rank: rank, worldSize: worldSize}

	privKey, err := hkdfKey(root, fmt.Sprintf("priv/%d", rank))
	if err != nil {
		return nil, err
	}
	s.privKey = privKey

	prevIdx := (rank - 1 + worldSize) % worldSize
	nextIdx := (rank + 1) % worldSize
	if s.keyPrev, err = pairwiseKey(root, prevIdx, rank); err != nil {
		return nil, err
	}
	if s.keyNext, err = pairwiseKey(root, rank, nextIdx); err != nil {
		return nil, err
	}
	return s, nil
}

// pairwiseKey derives the seed shared between the party at index lo
// and the party at index hi, labelled so both derive the same key
// regardless of which one calls this function.
func pairwiseKey(root []byte, lo, hi int) ([]byte, error) {
	return hkdfKey(root, fmt.Sprintf("pair/%d/%d", lo, hi))
}

func hkdfKey(root []byte, info string) ([]byte, error) {
	r := hkdf.New(func() hash.Hash { return blake3.New() }, root, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("prg: hkdf derive %q: %w", info, err)
	}
	return key, nil
}

// GenPriv draws a uniform tensor only this party can predict, used by
// RandA.
func (s *Service) GenPriv(f ring.Field, shape ring.Shape, tag Tag) (*ring.Tensor, error) {
	return Draw(s.privKey, tag, f, shape)
}

// GenPrssPair draws a correlated (r0, r1) pair for the given control
// tag: r0 is derived from the seed shared with the previous party,
// r1 from the seed shared with the next party. Summed around the
// full ring of parties, sum_i (r0_i - r1_i) telescopes to zero because
// party i's r0 and party (i-1)'s r1 are the same draw from the same
// shared seed.
func (s *Service) GenPrssPair(f ring.Field, shape ring.Shape, ctrl Tag) (r0, r1 *ring.Tensor, err error) {
	if r0, err = Draw(s.keyPrev, ctrl, f, shape); err != nil {
		return nil, nil, err
	}
	if r1, err = Draw(s.keyNext, ctrl, f, shape); err != nil {
		return nil, nil, err
	}
	return r0, r1, nil
}

// Rank returns the party index this service was constructed for.
func (s *Service) Rank() int { return s.rank }
