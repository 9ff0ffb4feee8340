package ring

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// lanes returns the number of data-parallel workers to split an
// elementwise loop across. cpuid's logical core count is used instead
// of runtime.NumCPU so the chosen width reflects the same
// hardware-topology signal erasure-coding libraries in this lineage
// use to size their lane count.
func lanes(numel int) int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	// Not worth splitting tiny tensors across goroutines.
	if numel < n*256 {
		return 1
	}
	return n
}

// parallelFor splits [0,numel) into contiguous chunks and runs fn on
// each chunk concurrently. Chunks never overlap, so fn may write to
// disjoint slices of its output tensor without synchronization.
func parallelFor(numel int, fn func(lo, hi int)) {
	w := lanes(numel)
	if w == 1 {
		fn(0, numel)
		return
	}

	chunk := (numel + w - 1) / w
	var wg sync.WaitGroup
	for lo := 0; lo < numel; lo += chunk {
		hi := lo + chunk
		if hi > numel {
			hi = numel
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
