package nodeset

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NodeSet is the unique-node table of a BDD package: a fixed-capacity,
// open-addressed hash table that maps every node shape to exactly one
// slot index. Two nodes are structurally equal iff LookupCreate returns
// the same Index for both.
//
// Key properties:
//   - Capacity is derived from a memory budget at Init and never changes
//   - Every slot carries its own spinlock; lookups of unrelated nodes
//     never contend with each other
//   - Slot 0 is reserved for the terminal sentinel
//   - Nodes are never removed; occupancy only grows until the table
//     saturates, after which new nodes are rejected with ErrTableFull
//
// Collisions are resolved by linear probing with wraparound. Each probe
// step holds at most one slot lock, so concurrent callers can never
// deadlock, and the compare-or-insert on a slot is atomic with respect
// to every other caller reaching that slot.
//
// A NodeSet must not be copied after first use.
type NodeSet struct {
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		_      noCopy
		slots  []nodeSlot
		hasher HashFunc
		seed   uint64
		logger *logrus.Logger
		warned atomic.Bool
	}{})%CacheLineSize) % CacheLineSize]byte

	_      noCopy
	slots  []nodeSlot
	hasher HashFunc
	seed   uint64
	logger *logrus.Logger
	warned atomic.Bool // set once the table has been reported full

	// count is the advisory number of occupied slots, sentinel included.
	// It lives on its own cache line since every insertion bumps it.
	count occupancyCounter
}

// occupancyCounter is a cache-line sized counter.
type occupancyCounter struct {
	c uintptr // accessed atomically

	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(uintptr(0))%CacheLineSize) % CacheLineSize]byte
}

// noCopy may be embedded into structs which must not be copied
// after the first use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Config defines configurable NodeSet options.
type Config struct {
	seed   uint64
	hasher HashFunc
	logger *logrus.Logger
}

// WithSeed configures the seed handed to the hash function. The default
// seed is 0, which makes slot assignment reproducible across runs.
func WithSeed(seed uint64) func(*Config) {
	return func(c *Config) {
		c.seed = seed
	}
}

// WithHasher replaces the default xxh3-based node hash. The function must
// be deterministic and depend only on the identity fields of the node.
// A nil hasher is ignored.
func WithHasher(hasher HashFunc) func(*Config) {
	return func(c *Config) {
		c.hasher = hasher
	}
}

// WithLogger sets the logger used for lifecycle events (initialization,
// saturation). Defaults to logrus.StandardLogger().
func WithLogger(logger *logrus.Logger) func(*Config) {
	return func(c *Config) {
		c.logger = logger
	}
}

// New creates a NodeSet whose slot array fits in memBudget bytes.
// See Init for the conditions under which it panics.
func New(memBudget uint64, options ...func(*Config)) *NodeSet {
	s := &NodeSet{}
	s.Init(memBudget, options...)
	return s
}

// Init allocates memBudget/SlotSize slots and reserves slot 0.
//
// An invalid budget is a startup precondition failure, not a recoverable
// error: Init panics with an error wrapping ErrInvalidBudget if the
// budget is smaller than SlotSize or yields 2^31 slots or more, and with
// ErrAlreadyInitialized if the set was already initialized.
func (s *NodeSet) Init(memBudget uint64, options ...func(*Config)) {
	if s.slots != nil {
		panic(errors.WithStack(ErrAlreadyInitialized))
	}

	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}

	elements := memBudget / SlotSize
	if elements == 0 || elements > math.MaxInt32 {
		panic(errors.Wrapf(ErrInvalidBudget,
			"budget of %d bytes yields %d slots of %d bytes, want [1, %d]",
			memBudget, elements, SlotSize, math.MaxInt32))
	}

	s.seed = cfg.seed
	s.hasher = cfg.hasher
	if s.hasher == nil {
		s.hasher = hashNode
	}
	s.logger = cfg.logger
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}

	// The zero nodeSlot is an empty, unlocked slot.
	slots := make([]nodeSlot, elements)
	slots[0].meta = slotOccupiedMask | slotReservedMask
	atomic.StoreUintptr(&s.count.c, 1)
	s.slots = slots

	s.logger.WithFields(logrus.Fields{
		"slots":    elements,
		"slotSize": SlotSize,
		"memory":   humanize.IBytes(elements * SlotSize),
	}).Debug("nodeset: table initialized")
}

// LookupCreate returns the canonical index of node, inserting it if no
// node with the same identity is stored yet. Size is only recorded by
// the call that inserts.
//
// If the table is full, it returns Sentinel and ErrTableFull. Note that
// Sentinel is also the index of the reserved terminal slot; callers must
// check the error to tell the two apart.
func (s *NodeSet) LookupCreate(node Node) (Index, error) {
	idx, _, err := s.LookupOrCreate(node)
	return idx, err
}

// LookupOrCreate is LookupCreate that additionally reports whether the
// node was already present (loaded) or inserted by this call.
func (s *NodeSet) LookupOrCreate(node Node) (idx Index, loaded bool, err error) {
	if s.slots == nil {
		return Sentinel, false, ErrNotInitialized
	}
	idx, res := s.probe(&node, true)
	switch res {
	case probeFound:
		return idx, true, nil
	case probeInserted:
		return idx, false, nil
	default:
		s.reportFull()
		return Sentinel, false, ErrTableFull
	}
}

// Lookup returns the index of the node with the same identity as node,
// without inserting it. ok is false if no such node is stored.
func (s *NodeSet) Lookup(node Node) (idx Index, ok bool) {
	if s.slots == nil {
		return Sentinel, false
	}
	idx, res := s.probe(&node, false)
	if res != probeFound {
		return Sentinel, false
	}
	return idx, true
}

// probe walks the probe sequence of node. Without insertion it stops at
// the first empty slot: nodes are never removed, so an empty slot ends
// every probe sequence that passes through it. It returns probeNext
// once all slots have been visited.
func (s *NodeSet) probe(node *Node, insert bool) (Index, probeResult) {
	slots := s.slots
	elements := uint64(len(slots))
	start := s.hasher(node, s.seed) % elements
	for offset := uint64(0); offset < elements; offset++ {
		i := start + offset
		if i >= elements {
			i -= elements
		}
		switch res := s.resolve(&slots[i], node, insert); res {
		case probeFound, probeInserted, probeVacant:
			return Index(i), res
		}
	}
	return Sentinel, probeNext
}

// resolve compares node against one slot, inserting it when the slot is
// empty and insert is set. The slot lock is held for the whole decision
// and released on every return path.
func (s *NodeSet) resolve(slot *nodeSlot, node *Node, insert bool) probeResult {
	slot.lock()
	defer slot.unlock()

	meta := loadMeta(&slot.meta)
	if meta&slotOccupiedMask == 0 {
		if !insert {
			return probeVacant
		}
		slot.node = *node
		atomic.AddUintptr(&s.count.c, 1)
		atomic.OrUint32(&slot.meta, slotOccupiedMask)
		return probeInserted
	}
	if meta&slotReservedMask == 0 && slot.node.SameIdentity(node) {
		// Reference counting would be bumped here; nodes are never freed.
		return probeFound
	}
	return probeNext
}

func (s *NodeSet) reportFull() {
	if s.warned.CompareAndSwap(false, true) {
		s.logger.WithField("slots", len(s.slots)).
			Warn("nodeset: table is full, new nodes are rejected")
	}
}

// Load returns the node stored at idx. ok is false if idx is out of
// range, empty, or the reserved sentinel.
func (s *NodeSet) Load(idx Index) (node Node, ok bool) {
	if uint64(idx) >= uint64(len(s.slots)) {
		return Node{}, false
	}
	return s.slots[idx].load()
}

// Len returns the number of occupied slots, the sentinel included,
// according to the internal counter. The counter is updated with relaxed
// ordering: it is exact once all concurrent LookupCreate calls have
// returned and been synchronized with, and advisory before that.
func (s *NodeSet) Len() int {
	return int(atomic.LoadUintptr(&s.count.c))
}

// Cap returns the fixed number of slots of the table.
func (s *NodeSet) Cap() int {
	return len(s.slots)
}

// Range calls yield for every stored node (the sentinel excluded) in
// index order until yield returns false. Each slot is read under its
// lock, but Range is not a snapshot: nodes inserted concurrently may or
// may not be visited. yield may call back into the NodeSet.
func (s *NodeSet) Range(yield func(idx Index, node Node) bool) {
	for i := range s.slots {
		if node, ok := s.slots[i].load(); ok {
			if !yield(Index(i), node) {
				return
			}
		}
	}
}

// All compatible with `iter.Seq2[Index, Node]`.
func (s *NodeSet) All() func(yield func(Index, Node) bool) {
	return s.Range
}
