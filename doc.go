/*
Package nodeset implements the unique-node table of a Binary Decision
Diagram package.

A BDD node is a decision point: a variable (Root) and the indices of the
two successor nodes taken when the variable is true or false. A NodeSet
interns nodes: LookupCreate returns the index of the slot holding a node
with the same (Root, BranchTrue, BranchFalse) triple, inserting it first
if needed. Because every node shape is stored at most once, two diagrams
are equal iff their root indices are equal.

The table is a fixed array of slots sized from a memory budget and
addressed by open addressing with linear probing. Each slot has its own
spinlock, so any number of goroutines may call LookupCreate concurrently;
callers racing on the same node shape all receive the same index.

	s := nodeset.New(64 << 20) // 64 MiB of slots
	idx, err := s.LookupCreate(nodeset.Node{Root: 3, BranchTrue: 1, BranchFalse: 2})

Slot 0 is reserved for the terminal sentinel. The table never grows and
nodes are never removed: once full, LookupCreate returns Sentinel together
with ErrTableFull.
*/
package nodeset
