package meta

// Layout bundles the storage-layout hints of a variable: chunking,
// compression, fill value, and byte order. These are configuration for the
// backend, not structural identity, so they never participate in name or
// id bookkeeping.
type Layout struct {
	Contiguous   bool
	ChunkSizes   []uint64
	Deflate      bool
	DeflateLevel int
	Shuffle      bool
	Fletcher32   bool
	Endianness   Endianness

	ChunkCacheSize       uint64
	ChunkCacheNelems     uint64
	ChunkCachePreemption float64
}

// Variable is a named, typed, multi-dimensional array. Its shape is the
// ordered list of dimension ids: order is significant, it is not a set.
// Every referenced dimension must be visible from the variable's own group
// (own or ancestor scope).
type Variable struct {
	Header
	Group *Group

	DimIDs []int
	TypeID int
	Atts   *Index

	Layout Layout

	// NoFill disables fill-value writing for this variable.
	NoFill bool
	// FillValue overrides the type's default fill value when non-nil.
	FillValue []byte

	IsNew bool
	// WasCoordVar is set when a rename broke this variable's coordinate
	// pairing with a dimension.
	WasCoordVar bool
	// BecameCoordVar is set when a rename established the pairing.
	BecameCoordVar bool
	// FillValueChanged is set when the fill value changes after the
	// variable was created on the backend.
	FillValueChanged bool
	// AttrDirty is set when any attribute of the variable needs rewriting.
	AttrDirty bool
	// Created is set once the backend has fully created the variable.
	Created bool
	// WrittenTo is set once data has been written to the variable.
	WrittenTo bool
}

// Rank returns the number of dimensions.
func (v *Variable) Rank() int {
	return len(v.DimIDs)
}

// IsCoordVar reports whether v is the coordinate variable of a dimension
// in its own group.
func (v *Variable) IsCoordVar() bool {
	if v.Group == nil {
		return false
	}
	obj, ok := v.Group.Dims.LookupByName(v.Name)
	if !ok {
		return false
	}
	return obj.(*Dimension).CoordVar == v
}
