package ring

import (
	"encoding/binary"
	"io"
)

// SampleUniform fills out with independent uniform elements drawn from
// r. Since every supported field's modulus is an exact power of two,
// this is a direct byte-to-word read with no rejection sampling
// needed, unlike samplers over a non-power-of-two modulus that must
// reject draws landing outside the modulus.
func SampleUniform(r io.Reader, out *Tensor) error {
	switch out.Field {
	case F32:
		buf := make([]byte, 4*len(out.U32))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out.U32 {
			out.U32[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
	case F64:
		buf := make([]byte, 8*len(out.U64))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out.U64 {
			out.U64[i] = binary.LittleEndian.Uint64(buf[i*8:])
		}
	case F128:
		buf := make([]byte, 16*len(out.U128))
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i := range out.U128 {
			out.U128[i] = Word128{
				Lo: binary.LittleEndian.Uint64(buf[i*16:]),
				Hi: binary.LittleEndian.Uint64(buf[i*16+8:]),
			}
		}
	}
	return nil
}

// MarshalElement writes t[i] to a WordSize()-byte little-endian
// buffer, matching the flat-byte-buffer contract of the Beaver
// provider interface.
func MarshalElement(t *Tensor, i int, dst []byte) {
	switch t.Field {
	case F32:
		binary.LittleEndian.PutUint32(dst, t.U32[i])
	case F64:
		binary.LittleEndian.PutUint64(dst, t.U64[i])
	case F128:
		binary.LittleEndian.PutUint64(dst, t.U128[i].Lo)
		binary.LittleEndian.PutUint64(dst[8:], t.U128[i].Hi)
	}
}

// UnmarshalElement reads t[i] from a WordSize()-byte little-endian
// buffer.
func UnmarshalElement(t *Tensor, i int, src []byte) {
	switch t.Field {
	case F32:
		t.U32[i] = binary.LittleEndian.Uint32(src)
	case F64:
		t.U64[i] = binary.LittleEndian.Uint64(src)
	case F128:
		t.U128[i] = Word128{
			Lo: binary.LittleEndian.Uint64(src),
			Hi: binary.LittleEndian.Uint64(src[8:]),
		}
	}
}

// Bytes flattens t into a single buffer of t.Numel()*t.Field.WordSize()
// bytes, the wire form the beaver and transport packages exchange.
func Bytes(t *Tensor) []byte {
	ws := t.Field.WordSize()
	buf := make([]byte, t.Numel()*ws)
	for i := 0; i < t.Numel(); i++ {
		MarshalElement(t, i, buf[i*ws:])
	}
	return buf
}

// FromBytes allocates a Tensor of the given field/shape and populates
// it from a flat byte buffer produced by Bytes.
func FromBytes(f Field, shape Shape, buf []byte) (*Tensor, error) {
	t := New(f, shape)
	ws := f.WordSize()
	if len(buf) != t.Numel()*ws {
		return nil, io.ErrUnexpectedEOF
	}
	for i := 0; i < t.Numel(); i++ {
		UnmarshalElement(t, i, buf[i*ws:])
	}
	return t, nil
}
