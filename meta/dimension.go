package meta

// Dimension is a named, sized axis shared by one or more variables to
// define their shape. Unlimited dimensions may grow monotonically while
// data is written.
type Dimension struct {
	Header
	Group *Group

	Len       uint64
	Unlimited bool
	// Extended is set when an unlimited dimension has grown and the backend
	// still has to apply the extension.
	Extended bool
	// TooLong is set when the on-disk length does not fit the local word
	// size; such dimensions are readable but not extendable.
	TooLong bool

	// CoordVar is the coordinate variable: the variable in the same group
	// sharing this dimension's name, if one exists.
	CoordVar *Variable
}

// HasCoordVar reports whether a coordinate variable is linked.
func (d *Dimension) HasCoordVar() bool {
	return d.CoordVar != nil
}
