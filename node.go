package nodeset

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Index is the canonical reference of a node: the position of its slot
// in the table.
type Index uint32

// Sentinel is the index of the reserved slot. It conventionally stands
// for a terminal (constant) node and is also the index value returned
// alongside ErrTableFull.
const Sentinel Index = 0

// Node describes one decision point of a BDD.
//
// The identity of a node is the triple (Root, BranchTrue, BranchFalse);
// Size is metadata copied into the table on first insertion and
// ignored by hashing and equality.
type Node struct {
	Root        uint32 // decision variable / ordering key
	BranchTrue  uint32 // index of the successor when Root is true
	BranchFalse uint32 // index of the successor when Root is false
	Size        uint64 // number of nodes in the subtree, not part of identity
}

// SameIdentity reports whether n and o describe the same node shape.
func (n *Node) SameIdentity(o *Node) bool {
	return n.Root == o.Root &&
		n.BranchTrue == o.BranchTrue &&
		n.BranchFalse == o.BranchFalse
}

// identityLen is the length of the canonical identity encoding.
const identityLen = 12

// HashFunc maps a node to a wide hash value. Implementations must only
// look at the identity fields, so that nodes differing in Size hash
// alike.
type HashFunc func(n *Node, seed uint64) uint64

// hashNode is the default HashFunc. It feeds the little-endian encoding
// of the identity triple to the 128-bit xxh3 hash and folds the result
// to 64 bits. The encoding is explicit so that the value does not
// depend on struct padding or on the host byte order.
func hashNode(n *Node, seed uint64) uint64 {
	var buf [identityLen]byte
	binary.LittleEndian.PutUint32(buf[0:], n.Root)
	binary.LittleEndian.PutUint32(buf[4:], n.BranchTrue)
	binary.LittleEndian.PutUint32(buf[8:], n.BranchFalse)
	h := xxh3.Hash128Seed(buf[:], seed)
	return h.Hi ^ h.Lo
}
