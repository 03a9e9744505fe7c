package raster

import (
	"runtime"
	"sync/atomic"
)

// maxWorkers caps the goroutines fanned out by parallel operations.
// Zero means one per CPU.
var maxWorkers atomic.Int64

// SetWorkers caps the goroutines used by parallel operations such as
// warping and focal statistics. Zero or negative restores the default
// of one worker per CPU.
func SetWorkers(n int) {
	if n < 0 {
		n = 0
	}
	maxWorkers.Store(int64(n))
}

// workersFor returns the worker count for a job of the given height.
func workersFor(rows int) int {
	n := int(maxWorkers.Load())
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > rows {
		n = rows
	}
	if n < 1 {
		n = 1
	}
	return n
}
