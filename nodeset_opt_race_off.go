//go:build !race

package nodeset

import (
	"runtime"
	"sync/atomic"
)

// Detect TSO architectures; on TSO, plain reads of native word-sized
// integers are safe
const isTSO = runtime.GOARCH == "amd64" ||
	runtime.GOARCH == "386" ||
	runtime.GOARCH == "s390x"

// TSO: plain load; non-TSO: use atomic.LoadUint32
//
//go:nosplit
func loadMeta(addr *uint32) uint32 {
	//goland:noinspection ALL
	if isTSO {
		return *addr
	} else {
		return atomic.LoadUint32(addr)
	}
}
