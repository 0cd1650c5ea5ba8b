package nodeset

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats returns statistics for the NodeSet. Just like other NodeSet
// methods, this one is thread-safe. Yet it's an O(N) operation that
// locks every slot in turn, so it should be used only for diagnostics
// or debugging purposes.
func (s *NodeSet) Stats() *Stats {
	stats := &Stats{
		Capacity: len(s.slots),
		Counter:  s.Len(),
		Bytes:    uint64(len(s.slots)) * SlotSize,
	}
	if len(s.slots) == 0 {
		stats.Counter = 0
		return stats
	}

	var run, leading int
	leadingOpen := true
	for i := range s.slots {
		slot := &s.slots[i]
		slot.lock()
		meta := loadMeta(&slot.meta)
		slot.unlock()

		if meta&slotOccupiedMask == 0 {
			leadingOpen = false
			run = 0
			continue
		}
		stats.Size++
		if meta&slotReservedMask != 0 {
			stats.Reserved++
		}
		run++
		if leadingOpen {
			leading = run
		}
		stats.LongestRun = max(stats.LongestRun, run)
	}
	// The probe sequence wraps around: a run touching the last slot
	// continues with the run starting at slot 0.
	if leadingOpen {
		stats.LongestRun = stats.Capacity
	} else if run > 0 {
		stats.LongestRun = max(stats.LongestRun, run+leading)
	}
	stats.LoadFactor = float64(stats.Size) / float64(stats.Capacity)
	return stats
}

// Stats is NodeSet statistics.
//
// Warning: statistics are intended to be used for diagnostic purposes,
// not for production code. This means that breaking changes may be
// introduced into this struct even between minor releases.
type Stats struct {
	// Capacity is the fixed number of slots.
	Capacity int
	// Counter is the number of occupied slots according to the internal
	// atomic counter. In case of concurrent insertions this number may
	// be different from Size.
	Counter int
	// Size is the exact number of occupied slots, sentinel included.
	Size int
	// Reserved is the number of reserved slots (the sentinel).
	Reserved int
	// LongestRun is the length of the longest cluster of consecutive
	// occupied slots, wrapping around the end of the table. It bounds
	// the number of slots a probe may visit.
	LongestRun int
	// LoadFactor is Size / Capacity.
	LoadFactor float64
	// Bytes is the memory held by the slot array.
	Bytes uint64
}

// String returns string representation of the stats.
func (s *Stats) String() string {
	var sb strings.Builder
	sb.WriteString("Stats{\n")
	fmt.Fprintf(&sb, "Capacity:   %s\n", humanize.Comma(int64(s.Capacity)))
	fmt.Fprintf(&sb, "Counter:    %s\n", humanize.Comma(int64(s.Counter)))
	fmt.Fprintf(&sb, "Size:       %s\n", humanize.Comma(int64(s.Size)))
	fmt.Fprintf(&sb, "Reserved:   %d\n", s.Reserved)
	fmt.Fprintf(&sb, "LongestRun: %d\n", s.LongestRun)
	fmt.Fprintf(&sb, "LoadFactor: %.3f\n", s.LoadFactor)
	fmt.Fprintf(&sb, "Bytes:      %s\n", humanize.IBytes(s.Bytes))
	sb.WriteString("}\n")
	return sb.String()
}
