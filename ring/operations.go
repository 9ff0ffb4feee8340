package ring

import "fmt"

// The generic helpers below are instantiated for uint32 and uint64;
// Go's wraparound semantics for unsigned integers give reduction mod
// 2^32 / 2^64 for free, so no explicit modulus is ever taken for
// those two fields. F128 uses the dedicated Word128 limb routines in
// field.go since Word128 is not a constraints.Unsigned type a generic
// function can range over.

func addGeneric[T Ring](a, b, out []T) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = a[i] + b[i]
		}
	})
}

func subGeneric[T Ring](a, b, out []T) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = a[i] - b[i]
		}
	})
}

func mulGeneric[T Ring](a, b, out []T) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = a[i] * b[i]
		}
	})
}

func negGeneric[T Ring](a, out []T) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = -a[i]
		}
	})
}

func addW128(a, b, out []Word128) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = AddW128(a[i], b[i])
		}
	})
}

func subW128s(a, b, out []Word128) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = SubW128(a[i], b[i])
		}
	})
}

func mulW128s(a, b, out []Word128) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = MulW128(a[i], b[i])
		}
	})
}

func negW128s(a, out []Word128) {
	parallelFor(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = NegW128(a[i])
		}
	})
}

// Add computes out = a+b (mod field modulus), elementwise. a, b, out
// must share field and shape; out may alias a or b.
func Add(a, b, out *Tensor) error {
	if err := checkTriple(a, b, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		addGeneric(a.U32, b.U32, out.U32)
	case F64:
		addGeneric(a.U64, b.U64, out.U64)
	case F128:
		addW128(a.U128, b.U128, out.U128)
	}
	return nil
}

// Sub computes out = a-b (mod field modulus), elementwise.
func Sub(a, b, out *Tensor) error {
	if err := checkTriple(a, b, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		subGeneric(a.U32, b.U32, out.U32)
	case F64:
		subGeneric(a.U64, b.U64, out.U64)
	case F128:
		subW128s(a.U128, b.U128, out.U128)
	}
	return nil
}

// Mul computes out = a*b (mod field modulus), elementwise.
func Mul(a, b, out *Tensor) error {
	if err := checkTriple(a, b, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		mulGeneric(a.U32, b.U32, out.U32)
	case F64:
		mulGeneric(a.U64, b.U64, out.U64)
	case F128:
		mulW128s(a.U128, b.U128, out.U128)
	}
	return nil
}

// Neg computes out = -a (mod field modulus), elementwise.
func Neg(a, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		negGeneric(a.U32, out.U32)
	case F64:
		negGeneric(a.U64, out.U64)
	case F128:
		negW128s(a.U128, out.U128)
	}
	return nil
}

// LShift computes out = a<<bits (mod field modulus), elementwise.
func LShift(a *Tensor, bits uint, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = a.U32[i] << bits
			}
		})
	case F64:
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = a.U64[i] << bits
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U128[i] = LShiftW128(a.U128[i], bits)
			}
		})
	}
	return nil
}

// RShift computes the logical out = a>>bits, elementwise.
func RShift(a *Tensor, bits uint, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = a.U32[i] >> bits
			}
		})
	case F64:
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = a.U64[i] >> bits
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U128[i] = RShiftW128(a.U128[i], bits)
			}
		})
	}
	return nil
}

// ARShift computes the arithmetic (sign-extending, two's-complement)
// out = a>>bits, elementwise.
func ARShift(a *Tensor, bits uint, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = uint32(int32(a.U32[i]) >> bits)
			}
		})
	case F64:
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = uint64(int64(a.U64[i]) >> bits)
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U128[i] = ARShiftW128(a.U128[i], bits)
			}
		})
	}
	return nil
}

// Mask zeroes every bit at position >= bits, elementwise
// (out = a & (2^bits - 1)).
func Mask(a *Tensor, bits uint, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		m := ^uint32(0)
		if bits < 32 {
			m = uint32(1)<<bits - 1
		}
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = a.U32[i] & m
			}
		})
	case F64:
		m := ^uint64(0)
		if bits < 64 {
			m = uint64(1)<<bits - 1
		}
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = a.U64[i] & m
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U128[i] = maskW128(a.U128[i], bits)
			}
		})
	}
	return nil
}

func maskW128(a Word128, bits uint) Word128 {
	if bits >= 128 {
		return a
	}
	if bits >= 64 {
		m := uint64(0)
		if bits > 64 {
			m = uint64(1)<<(bits-64) - 1
		}
		return Word128{Lo: a.Lo, Hi: a.Hi & m}
	}
	m := uint64(1)<<bits - 1
	return Word128{Lo: a.Lo & m, Hi: 0}
}

// LShiftVec computes out[i] = a[i]<<bits[i] (mod field modulus), one
// shift amount per element. len(bits) must equal a.Numel(); the
// caller (kernel.LShiftA) is responsible for broadcasting a shorter
// per-axis vector out to this form.
func LShiftVec(a *Tensor, bits []uint, out *Tensor) error {
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	if len(bits) != a.Numel() {
		return fmt.Errorf("ring: LShiftVec bits length %d != numel %d", len(bits), a.Numel())
	}
	switch a.Field {
	case F32:
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = a.U32[i] << bits[i]
			}
		})
	case F64:
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = a.U64[i] << bits[i]
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U128[i] = LShiftW128(a.U128[i], bits[i])
			}
		})
	}
	return nil
}

// CompareGE computes out[i] = 1 if a[i] >= b[i] (unsigned) else 0,
// elementwise, the local boolean comparison TruncAPr2's modular-wrap
// subroutine needs on each party's raw share.
func CompareGE(a, b, out *Tensor) error {
	if err := checkTriple(a, b, out); err != nil {
		return err
	}
	switch a.Field {
	case F32:
		parallelFor(len(out.U32), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U32[i] = boolWord[uint32](a.U32[i] >= b.U32[i])
			}
		})
	case F64:
		parallelFor(len(out.U64), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out.U64[i] = boolWord[uint64](a.U64[i] >= b.U64[i])
			}
		})
	case F128:
		parallelFor(len(out.U128), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				if GEW128(a.U128[i], b.U128[i]) {
					out.U128[i] = Word128{Lo: 1}
				} else {
					out.U128[i] = Word128{}
				}
			}
		})
	}
	return nil
}

func boolWord[T Ring](b bool) T {
	if b {
		return 1
	}
	return 0
}

// Fill allocates a tensor of the given field/shape with every element
// set to the low bits of v.
func Fill(f Field, shape Shape, v uint64) *Tensor {
	t := New(f, shape)
	switch f {
	case F32:
		for i := range t.U32 {
			t.U32[i] = uint32(v)
		}
	case F64:
		for i := range t.U64 {
			t.U64[i] = v
		}
	case F128:
		for i := range t.U128 {
			t.U128[i] = Word128{Lo: v}
		}
	}
	return t
}

// Pow2 returns a tensor with every element equal to 2^n (mod field
// modulus), the constant-building primitive the truncation protocols
// use for their bias and scale terms.
func Pow2(f Field, shape Shape, n uint) *Tensor {
	ones := Fill(f, shape, 1)
	out := New(f, shape)
	LShift(ones, n, out)
	return out
}

// Cast re-embeds src's per-element value, read as an unsigned integer
// of src's width, into dst's field: zero-extended when dst is wider,
// reduced mod dst's modulus (low bits kept) when dst is narrower. This
// is the canonical cross-ring embedding TruncAPr2 needs to move its
// modular-wrap correction term and computeMW's boolean indicators
// between the secret's native field and the narrower truncation field.
func Cast(src *Tensor, dst Field) *Tensor {
	out := New(dst, append(Shape{}, src.Shape...))
	switch src.Field {
	case F32:
		for i, v := range src.U32 {
			setLow(out, i, uint64(v))
		}
	case F64:
		for i, v := range src.U64 {
			setLow(out, i, v)
		}
	case F128:
		for i, v := range src.U128 {
			switch dst {
			case F128:
				out.U128[i] = v
			default:
				setLow(out, i, v.Lo)
			}
		}
	}
	return out
}

func setLow(out *Tensor, i int, v uint64) {
	switch out.Field {
	case F32:
		out.U32[i] = uint32(v)
	case F64:
		out.U64[i] = v
	case F128:
		out.U128[i] = Word128{Lo: v}
	}
}

func checkTriple(a, b, out *Tensor) error {
	if err := SameShapeField(a, b); err != nil {
		return err
	}
	if err := SameShapeField(a, out); err != nil {
		return err
	}
	return nil
}

// MatMul computes out = a@b for 2-D tensors with matching inner
// dimensions (a: m×k, b: k×n, out: m×n), modulo the field modulus.
// Delegates to a straightforward triple loop, parallelized over rows;
// production deployments are expected to swap in a tuned routine per
// the "matmul should delegate to a tuned routine" design note without
// changing the kernel-facing signature.
func MatMul(a, b *Tensor, m, k, n int, out *Tensor) error {
	if a.Field != b.Field || a.Field != out.Field {
		return fmt.Errorf("ring: field mismatch in matmul")
	}
	if a.Numel() != m*k || b.Numel() != k*n || out.Numel() != m*n {
		return fmt.Errorf("ring: shape mismatch in matmul: a=%s b=%s out=%s (m=%d k=%d n=%d)", a.Shape, b.Shape, out.Shape, m, k, n)
	}
	switch a.Field {
	case F32:
		matMulGeneric(a.U32, b.U32, out.U32, m, k, n)
	case F64:
		matMulGeneric(a.U64, b.U64, out.U64, m, k, n)
	case F128:
		matMulW128(a.U128, b.U128, out.U128, m, k, n)
	}
	return nil
}

func matMulGeneric[T Ring](a, b, out []T, m, k, n int) {
	parallelFor(m, func(rlo, rhi int) {
		for i := rlo; i < rhi; i++ {
			for j := 0; j < n; j++ {
				var acc T
				for p := 0; p < k; p++ {
					acc += a[i*k+p] * b[p*n+j]
				}
				out[i*n+j] = acc
			}
		}
	})
}

func matMulW128(a, b, out []Word128, m, k, n int) {
	parallelFor(m, func(rlo, rhi int) {
		for i := rlo; i < rhi; i++ {
			for j := 0; j < n; j++ {
				acc := Word128{}
				for p := 0; p < k; p++ {
					acc = AddW128(acc, MulW128(a[i*k+p], b[p*n+j]))
				}
				out[i*n+j] = acc
			}
		}
	})
}
