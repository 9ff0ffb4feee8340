package beaver

import (
	"fmt"

	"github.com/privacystack/ringshare/prg"
	"github.com/privacystack/ringshare/ring"
)

// TrustedDealer is an in-process reference Provider: a single seed
// known to every caller stands in for an offline dealing phase,
// exactly the shortcut taken by simulated-multiparty test harnesses
// that combine per-party secret material in the clear because the
// whole run lives in one process. Production deployments replace
// TrustedDealer with a real offline protocol (SPDZ-style or a
// networked semi-trusted dealer) behind the same Provider interface;
// nothing in the kernel package depends on which one is wired in.
type TrustedDealer struct {
	seed      []byte
	worldSize int
}

// NewTrustedDealer returns a Provider for worldSize parties. Every
// caller (one per simulated party) must be constructed from the same
// seed for the dealt shares to reconstruct correctly.
func NewTrustedDealer(seed []byte, worldSize int) (*TrustedDealer, error) {
	if worldSize < 1 {
		return nil, fmt.Errorf("beaver: invalid world size %d", worldSize)
	}
	return &TrustedDealer{seed: seed, worldSize: worldSize}, nil
}

// WorldSize implements Provider.
func (d *TrustedDealer) WorldSize() int { return d.worldSize }

// share returns rank's additive share of plain under tag: the first
// worldSize-1 ranks draw an independent uniform share each, and the
// last rank's share is whatever plain minus those leaves behind. Every
// caller across every rank derives the same set of shares because
// they all draw from the same seed and tag.
func (d *TrustedDealer) share(tag string, f ring.Field, shape ring.Shape, rank int, plain *ring.Tensor) (*ring.Tensor, error) {
	if rank < d.worldSize-1 {
		return prg.Draw(d.seed, prg.Tag(tag+fmt.Sprintf("/share/%d", rank)), f, shape)
	}
	remainder := plain.Clone()
	for i := 0; i < d.worldSize-1; i++ {
		s, err := prg.Draw(d.seed, prg.Tag(tag+fmt.Sprintf("/share/%d", i)), f, shape)
		if err != nil {
			return nil, err
		}
		if err := ring.Sub(remainder, s, remainder); err != nil {
			return nil, err
		}
	}
	return remainder, nil
}

func (d *TrustedDealer) draw(tag string, f ring.Field, shape ring.Shape) (*ring.Tensor, error) {
	return prg.Draw(d.seed, prg.Tag(tag), f, shape)
}

// Mul implements Provider.
func (d *TrustedDealer) Mul(rank int, f ring.Field, shape ring.Shape, tag, aTag, bTag string) (a, b, c *ring.Tensor, err error) {
	if aTag == "" {
		aTag = tag + "/a"
	}
	if bTag == "" {
		bTag = tag + "/b"
	}
	A, err := d.draw(aTag+"/plain", f, shape)
	if err != nil {
		return nil, nil, nil, err
	}
	B, err := d.draw(bTag+"/plain", f, shape)
	if err != nil {
		return nil, nil, nil, err
	}
	C := ring.New(f, shape)
	if err := ring.Mul(A, B, C); err != nil {
		return nil, nil, nil, err
	}
	if a, err = d.share(aTag, f, shape, rank, A); err != nil {
		return nil, nil, nil, err
	}
	if b, err = d.share(bTag, f, shape, rank, B); err != nil {
		return nil, nil, nil, err
	}
	if c, err = d.share(tag+"/c", f, shape, rank, C); err != nil {
		return nil, nil, nil, err
	}
	return a, b, c, nil
}

// Dot implements Provider.
func (d *TrustedDealer) Dot(rank int, f ring.Field, m, n, k int, tag, aTag, bTag string) (a, b, c *ring.Tensor, err error) {
	if aTag == "" {
		aTag = tag + "/a"
	}
	if bTag == "" {
		bTag = tag + "/b"
	}
	aShape, bShape, cShape := ring.Shape{m, k}, ring.Shape{k, n}, ring.Shape{m, n}

	A, err := d.draw(aTag+"/plain", f, aShape)
	if err != nil {
		return nil, nil, nil, err
	}
	B, err := d.draw(bTag+"/plain", f, bShape)
	if err != nil {
		return nil, nil, nil, err
	}
	C := ring.New(f, cShape)
	if err := ring.MatMul(A, B, m, k, n, C); err != nil {
		return nil, nil, nil, err
	}
	if a, err = d.share(aTag, f, aShape, rank, A); err != nil {
		return nil, nil, nil, err
	}
	if b, err = d.share(bTag, f, bShape, rank, B); err != nil {
		return nil, nil, nil, err
	}
	if c, err = d.share(tag+"/c", f, cShape, rank, C); err != nil {
		return nil, nil, nil, err
	}
	return a, b, c, nil
}

// Square implements Provider.
func (d *TrustedDealer) Square(rank int, f ring.Field, shape ring.Shape, tag, aTag string) (a, a2 *ring.Tensor, err error) {
	if aTag == "" {
		aTag = tag + "/a"
	}
	A, err := d.draw(aTag+"/plain", f, shape)
	if err != nil {
		return nil, nil, err
	}
	A2 := ring.New(f, shape)
	if err := ring.Mul(A, A, A2); err != nil {
		return nil, nil, err
	}
	if a, err = d.share(aTag, f, shape, rank, A); err != nil {
		return nil, nil, err
	}
	if a2, err = d.share(tag+"/a2", f, shape, rank, A2); err != nil {
		return nil, nil, err
	}
	return a, a2, nil
}

// MulPriv implements Provider. Only ranks 0 and 1 are meaningful; the
// kernel is responsible for enforcing the two-party precondition
// before calling in.
func (d *TrustedDealer) MulPriv(rank int, f ring.Field, shape ring.Shape, tag string) (aLocal, cLocal *ring.Tensor, err error) {
	if rank != 0 && rank != 1 {
		return nil, nil, fmt.Errorf("beaver: MulPriv called with rank %d, want 0 or 1", rank)
	}
	A0, err := d.draw(tag+"/a0", f, shape)
	if err != nil {
		return nil, nil, err
	}
	A1, err := d.draw(tag+"/a1", f, shape)
	if err != nil {
		return nil, nil, err
	}
	C := ring.New(f, shape)
	if err := ring.Mul(A0, A1, C); err != nil {
		return nil, nil, err
	}
	c0, err := d.draw(tag+"/c0", f, shape)
	if err != nil {
		return nil, nil, err
	}
	c1 := ring.New(f, shape)
	if err := ring.Sub(C, c0, c1); err != nil {
		return nil, nil, err
	}
	if rank == 0 {
		return A0, c0, nil
	}
	return A1, c1, nil
}

// Trunc implements Provider.
func (d *TrustedDealer) Trunc(rank int, f ring.Field, shape ring.Shape, bits int, tag string) (r, rShift *ring.Tensor, err error) {
	R, err := d.draw(tag+"/plain", f, shape)
	if err != nil {
		return nil, nil, err
	}
	Rs := ring.New(f, shape)
	if err := ring.RShift(R, uint(bits), Rs); err != nil {
		return nil, nil, err
	}
	if r, err = d.share(tag+"/r", f, shape, rank, R); err != nil {
		return nil, nil, err
	}
	if rShift, err = d.share(tag+"/rshift", f, shape, rank, Rs); err != nil {
		return nil, nil, err
	}
	return r, rShift, nil
}

// TruncPr implements Provider.
func (d *TrustedDealer) TruncPr(rank int, f ring.Field, shape ring.Shape, bits int, tag string) (r, rC, rB *ring.Tensor, err error) {
	k := f.Bits()
	R, err := d.draw(tag+"/plain", f, shape)
	if err != nil {
		return nil, nil, nil, err
	}

	rcPlain := ring.New(f, shape)
	if err := ring.Mask(R, uint(k-1), rcPlain); err != nil {
		return nil, nil, nil, err
	}
	if err := ring.RShift(rcPlain, uint(bits), rcPlain); err != nil {
		return nil, nil, nil, err
	}

	rbPlain := ring.New(f, shape)
	if err := ring.RShift(R, uint(k-1), rbPlain); err != nil {
		return nil, nil, nil, err
	}
	if err := ring.Mask(rbPlain, 1, rbPlain); err != nil {
		return nil, nil, nil, err
	}

	if r, err = d.share(tag+"/r", f, shape, rank, R); err != nil {
		return nil, nil, nil, err
	}
	if rC, err = d.share(tag+"/rc", f, shape, rank, rcPlain); err != nil {
		return nil, nil, nil, err
	}
	if rB, err = d.share(tag+"/rb", f, shape, rank, rbPlain); err != nil {
		return nil, nil, nil, err
	}
	return r, rC, rB, nil
}
