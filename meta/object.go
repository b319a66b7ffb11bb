// Package meta implements the in-memory metadata model for a
// self-describing, hierarchical array storage container. It tracks groups,
// dimensions, variables, attributes, and user-defined types as a single
// consistent object graph, independent of which physical encoding backend
// ultimately persists it.
//
// The graph is designed for single-writer, single-goroutine-per-container
// mutation; it is not internally synchronized. All structural operations are
// synchronous, in-memory, and all-or-nothing: they validate preconditions
// before mutating any shared state.
package meta

import "hash/crc32"

// Kind tags every indexable metadata object so a single Index can hold
// objects of different kinds polymorphically.
type Kind int

const (
	KindNone Kind = iota
	KindGroup
	KindVariable
	KindDimension
	KindAttribute
	KindType
	KindCompoundField
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindVariable:
		return "variable"
	case KindDimension:
		return "dimension"
	case KindAttribute:
		return "attribute"
	case KindType:
		return "type"
	case KindCompoundField:
		return "field"
	default:
		return "none"
	}
}

// Header holds the common identity fields embedded in every indexable
// object: kind tag, normalized name, numeric id, and a precomputed name
// hash used for fast comparison and bucketing.
type Header struct {
	Kind Kind
	Name string
	ID   int
	Hash uint32
}

// Object is implemented by every entity that can live in an Index.
type Object interface {
	Hdr() *Header
}

// Hdr returns the header itself, making Header embeddable as the Object
// implementation for all graph node types.
func (h *Header) Hdr() *Header { return h }

// NameHash computes the hash of a normalized name. The same function must
// be used everywhere a Header.Hash is set or compared.
func NameHash(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name))
}

// NewHeader builds a header for a normalized name. The id is assigned by
// the owning File or container, not here.
func NewHeader(kind Kind, name string, id int) Header {
	return Header{Kind: kind, Name: name, ID: id, Hash: NameHash(name)}
}
