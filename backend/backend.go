// Package backend defines the narrow surface between the metadata graph
// and its persistence collaborators. The core hands a backend a flat
// structural Description of the container (groups, dimensions, variables,
// types, attributes, in declaration order) and the backend owns every
// byte-level concern; on open, the backend hands back a Description and
// the core assembles the graph from it.
package backend

import "context"

// Store persists and retrieves structural descriptions. Implementations
// own the physical encoding entirely; the core never sees byte offsets.
type Store interface {
	// Save persists the whole structural description, replacing any
	// previous one.
	Save(ctx context.Context, desc *Description) error
	// Load retrieves the last saved structural description.
	Load(ctx context.Context) (*Description, error)
}

// Description is the flat structural form of one container: a tree of
// group descriptions rooted at Root. Object ids within a Description are
// the ids the graph assigns on assembly, in enumeration order.
type Description struct {
	Root GroupDesc `json:"root"`
}

// GroupDesc describes one group and everything it owns, each section in
// declaration order.
type GroupDesc struct {
	Name       string      `json:"name"`
	ID         int         `json:"id"`
	Dimensions []DimDesc   `json:"dimensions,omitempty"`
	Types      []TypeDesc  `json:"types,omitempty"`
	Variables  []VarDesc   `json:"variables,omitempty"`
	Attributes []AttrDesc  `json:"attributes,omitempty"`
	Groups     []GroupDesc `json:"groups,omitempty"`
}

// DimDesc describes one dimension.
type DimDesc struct {
	Name      string `json:"name"`
	ID        int    `json:"id"`
	Len       uint64 `json:"len"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

// TypeDesc describes one user-defined type. Base is set for enum and vlen
// classes; Members for enums; Fields for compounds.
type TypeDesc struct {
	Name    string       `json:"name"`
	ID      int          `json:"id"`
	Class   string       `json:"class"`
	Size    uint64       `json:"size"`
	Base    int          `json:"base,omitempty"`
	Members []MemberDesc `json:"members,omitempty"`
	Fields  []FieldDesc  `json:"fields,omitempty"`
}

// MemberDesc is one enum member.
type MemberDesc struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// FieldDesc is one compound field.
type FieldDesc struct {
	Name   string `json:"name"`
	TypeID int    `json:"type_id"`
	Offset uint64 `json:"offset"`
	Shape  []int  `json:"shape,omitempty"`
}

// VarDesc describes one variable: its shape as an ordered dimension-id
// list, its type, its attributes, and its storage-layout configuration.
type VarDesc struct {
	Name       string     `json:"name"`
	ID         int        `json:"id"`
	TypeID     int        `json:"type_id"`
	DimIDs     []int      `json:"dim_ids,omitempty"`
	Attributes []AttrDesc `json:"attributes,omitempty"`
	Layout     LayoutDesc `json:"layout"`
	NoFill     bool       `json:"no_fill,omitempty"`
	FillValue  []byte     `json:"fill_value,omitempty"`
}

// LayoutDesc mirrors the storage-layout hints of a variable.
type LayoutDesc struct {
	Contiguous   bool     `json:"contiguous,omitempty"`
	ChunkSizes   []uint64 `json:"chunk_sizes,omitempty"`
	Deflate      bool     `json:"deflate,omitempty"`
	DeflateLevel int      `json:"deflate_level,omitempty"`
	Shuffle      bool     `json:"shuffle,omitempty"`
	Fletcher32   bool     `json:"fletcher32,omitempty"`
	Endianness   int      `json:"endianness,omitempty"`
}

// AttrDesc describes one attribute name/type/value triple. Dirty marks
// attributes the flush collaborator still has to write.
type AttrDesc struct {
	Name    string   `json:"name"`
	TypeID  int      `json:"type_id"`
	Count   int      `json:"count"`
	Bytes   []byte   `json:"bytes,omitempty"`
	Strings []string `json:"strings,omitempty"`
	Dirty   bool     `json:"dirty,omitempty"`
}
