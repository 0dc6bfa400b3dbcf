package util

import "runtime"

// OptimalPoolSize returns the worker count for parallel file processing:
// min(max(runtime.NumCPU() * 2, 4), 32). The transform is pure string work,
// so 2x cores keeps workers busy while files are read; the floor guarantees
// some parallelism on small machines and the cap bounds channel buffers on
// large ones.
func OptimalPoolSize() int {
	n := runtime.NumCPU() * 2
	if n < 4 {
		n = 4
	}
	if n > 32 {
		n = 32
	}
	return n
}

// PoolSizeWithOverride returns override when positive, otherwise
// OptimalPoolSize(). Used to honor an explicit worker-count setting.
func PoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return OptimalPoolSize()
}
