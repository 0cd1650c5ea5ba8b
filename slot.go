package nodeset

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Slot meta bits. The all-zero word is an empty, unlocked slot, so a
// freshly allocated slice of nodeSlot needs no further initialization.
const (
	slotLockMask     uint32 = 1 << 0
	slotOccupiedMask uint32 = 1 << 1
	// slotReservedMask marks the sentinel slot. It is always set together
	// with slotOccupiedMask and never matches a caller's node.
	slotReservedMask uint32 = 1 << 2
)

// enableSpin controls whether waiting on a slot lock first burns a few
// PAUSE instructions through the runtime's active spin before yielding
// the goroutine with runtime.Gosched.
const enableSpin = true

// SlotSize is the number of bytes taken by one table cell. The capacity
// of a NodeSet is its memory budget divided by SlotSize.
const SlotSize = uint64(unsafe.Sizeof(nodeSlot{}))

// nodeSlot is one cell of the table.
//
// node is written once, by the goroutine that flips the slot from empty
// to occupied, and only ever accessed while the lock bit is held.
type nodeSlot struct {
	meta uint32 // lock, occupied and reserved bits
	node Node
}

// probeResult is the outcome of resolving a node against one slot.
type probeResult uint8

const (
	// probeNext means the slot holds a different node (or the sentinel).
	probeNext probeResult = iota
	// probeFound means the slot holds a node with the same identity.
	probeFound
	// probeInserted means the slot was empty and now holds the node.
	probeInserted
	// probeVacant means the slot was empty and insertion was not asked for.
	probeVacant
)

// lock acquires the slot lock, busy-waiting until it is free.
// The lock state is embedded in the meta word so that checking a slot
// touches a single cache line.
//
// Partially references:
// [https://github.com/facebook/folly/blob/main/folly/synchronization/PicoSpinLock.h]
func (s *nodeSlot) lock() {
	cur := loadMeta(&s.meta)
	if atomic.CompareAndSwapUint32(&s.meta, cur&^slotLockMask, cur|slotLockMask) {
		return
	}
	s.slowLock()
}

func (s *nodeSlot) slowLock() {
	spins := 0
	for !s.tryLock() {
		delay(&spins)
	}
}

func (s *nodeSlot) tryLock() bool {
	for {
		cur := loadMeta(&s.meta)
		if cur&slotLockMask != 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(&s.meta, cur, cur|slotLockMask) {
			return true
		}
	}
}

func (s *nodeSlot) unlock() {
	atomic.AndUint32(&s.meta, ^slotLockMask)
}

// load returns a copy of the stored node if the slot holds a caller
// node. The sentinel and empty slots report false.
func (s *nodeSlot) load() (Node, bool) {
	s.lock()
	defer s.unlock()
	if loadMeta(&s.meta)&(slotOccupiedMask|slotReservedMask) != slotOccupiedMask {
		return Node{}, false
	}
	return s.node, true
}

// delay backs off a contended lock. It never parks the OS thread:
// while the runtime allows active spinning it issues PAUSE, otherwise
// it yields the goroutine and starts over.
func delay(spins *int) {
	if //goland:noinspection ALL
	enableSpin && runtime_canSpin(*spins) {
		runtime_doSpin()
		*spins++
	} else {
		runtime.Gosched()
		*spins = 0
	}
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//go:nosplit
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//go:nosplit
func runtime_doSpin()
