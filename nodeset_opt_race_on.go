//go:build race

package nodeset

import "sync/atomic"

// Under race detector, disable TSO optimizations and use conservative
// atomic loads
const isTSO = false

// Conservative: atomic load to satisfy race detector
//
//go:nosplit
func loadMeta(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}
