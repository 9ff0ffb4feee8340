package prg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privacystack/ringshare/ring"
)

func TestDrawIsDeterministic(t *testing.T) {
	key := []byte("a fixed 16+ byte key for testing")
	a, err := Draw(key, "tag-a", ring.F64, ring.Shape{4})
	require.NoError(t, err)
	b, err := Draw(key, "tag-a", ring.F64, ring.Shape{4})
	require.NoError(t, err)
	require.True(t, bytes.Equal(ring.Bytes(a), ring.Bytes(b)))

	c, err := Draw(key, "tag-b", ring.F64, ring.Shape{4})
	require.NoError(t, err)
	require.False(t, bytes.Equal(ring.Bytes(a), ring.Bytes(c)), "different tags must diverge")
}

func TestPrssPairTelescopesAroundRing(t *testing.T) {
	root := []byte("cluster root secret used across all parties")
	n := 4
	services := make([]*Service, n)
	for i := 0; i < n; i++ {
		s, err := NewService(root, i, n)
		require.NoError(t, err)
		services[i] = s
	}

	sum := ring.New(ring.F64, ring.Shape{3})
	for i := 0; i < n; i++ {
		r0, r1, err := services[i].GenPrssPair(ring.F64, ring.Shape{3}, "P2A")
		require.NoError(t, err)
		diff := ring.New(ring.F64, ring.Shape{3})
		require.NoError(t, ring.Sub(r0, r1, diff))
		require.NoError(t, ring.Add(sum, diff, sum))
	}
	require.True(t, bytes.Equal(ring.Bytes(sum), ring.Bytes(ring.New(ring.F64, ring.Shape{3}))), "sum of (r0-r1) around the ring must be zero")
}
