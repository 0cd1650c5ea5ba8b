package nodeset

import "github.com/pkg/errors"

var (
	// ErrTableFull is returned by LookupCreate and LookupOrCreate when every
	// slot holds a different node. The accompanying index is Sentinel.
	ErrTableFull = errors.New("nodeset: table is full")

	// ErrNotInitialized is returned when a NodeSet is used before Init.
	ErrNotInitialized = errors.New("nodeset: not initialized")

	// ErrInvalidBudget is the panic value (wrapped) of Init and New when the
	// memory budget holds no slot or more slots than an Index can address.
	ErrInvalidBudget = errors.New("nodeset: invalid memory budget")

	// ErrAlreadyInitialized is the panic value (wrapped) of a second Init.
	ErrAlreadyInitialized = errors.New("nodeset: already initialized")
)
