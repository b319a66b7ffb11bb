package meta

import (
	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// TypeClass partitions the type system: atomic types are fixed and
// predefined; the four user-defined classes each carry a class-specific
// payload.
type TypeClass int

const (
	ClassAtomic TypeClass = iota
	ClassCompound
	ClassEnum
	ClassVLen
	ClassOpaque
)

// String returns the lowercase name of the class
func (c TypeClass) String() string {
	switch c {
	case ClassAtomic:
		return "atomic"
	case ClassCompound:
		return "compound"
	case ClassEnum:
		return "enum"
	case ClassVLen:
		return "vlen"
	case ClassOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Endianness tags the byte order a user-defined type is stored with.
// It is configuration carried for the backend, not structural identity.
type Endianness int

const (
	EndianNative Endianness = iota
	EndianLittle
	EndianBig
)

// Atomic type ids. These are fixed, predefined, and never created or
// destroyed; user-defined type ids start at FirstUserTypeID so the two
// ranges never overlap.
const (
	TypeByte   = 1
	TypeChar   = 2
	TypeShort  = 3
	TypeInt    = 4
	TypeFloat  = 5
	TypeDouble = 6
	TypeUByte  = 7
	TypeUShort = 8
	TypeUInt   = 9
	TypeInt64  = 10
	TypeUInt64 = 11
	TypeString = 12

	// FirstUserTypeID is the first id handed to a user-defined type.
	FirstUserTypeID = 32
)

// MaxAtomicType is the largest atomic type id.
const MaxAtomicType = TypeString

var atomicNames = [MaxAtomicType + 1]string{
	"", "byte", "char", "short", "int", "float", "double",
	"ubyte", "ushort", "uint", "int64", "uint64", "string",
}

// In-memory width per atomic type. String is the width of the pointer
// representation; the backend owns its on-disk encoding.
var atomicSizes = [MaxAtomicType + 1]uint64{
	0, 1, 1, 2, 4, 4, 8, 1, 2, 4, 8, 8, 8,
}

// vlenMemSize is the in-memory width of a variable-length cell
// (a length plus a pointer).
const vlenMemSize = 16

// EnumMember is one name=value pair of an enum type, in declaration order.
type EnumMember struct {
	Name  string
	Value int64
}

// CompoundField is one field of a compound type. Shape, when non-empty,
// declares a fixed sub-array of the field type.
type CompoundField struct {
	Header
	TypeID int
	Offset uint64
	Shape  []int
}

// EnumPayload holds the class-specific state of an enum type.
type EnumPayload struct {
	BaseTypeID int
	Members    []EnumMember
}

// CompoundPayload holds the ordered fields of a compound type.
type CompoundPayload struct {
	Fields *Index // Index of *CompoundField
}

// VLenPayload holds the element base type of a variable-length type.
type VLenPayload struct {
	BaseTypeID int
}

// TypeInfo describes one type, atomic or user-defined. User-defined types
// are reference-counted because many variables, attributes, and compound
// fields may depend on one type; a type cannot be deleted while its count
// is nonzero. Exactly one of the payload pointers is set, matching Class.
type TypeInfo struct {
	Header
	Container  *Group // owning group; nil for atomic types
	Class      TypeClass
	SizeBytes  uint64
	Endianness Endianness
	Committed  bool
	refCount   int

	Enum     *EnumPayload
	Compound *CompoundPayload
	VLen     *VLenPayload
}

var atomicTypes [MaxAtomicType + 1]*TypeInfo

func init() {
	for id := 1; id <= MaxAtomicType; id++ {
		atomicTypes[id] = &TypeInfo{
			Header:    NewHeader(KindType, atomicNames[id], id),
			Class:     ClassAtomic,
			SizeBytes: atomicSizes[id],
			Committed: true,
		}
	}
}

// AtomicType returns the predefined type with the given id, or false if id
// is not an atomic type id.
func AtomicType(id int) (*TypeInfo, bool) {
	if id < 1 || id > MaxAtomicType {
		return nil, false
	}
	return atomicTypes[id], true
}

// AtomicTypeByName returns the predefined type with the given name.
func AtomicTypeByName(name string) (*TypeInfo, bool) {
	for id := 1; id <= MaxAtomicType; id++ {
		if atomicNames[id] == name {
			return atomicTypes[id], true
		}
	}
	return nil, false
}

// IsAtomic reports whether id names a predefined atomic type.
func IsAtomic(id int) bool {
	return id >= 1 && id <= MaxAtomicType
}

// isAtomicInteger reports whether id is an integer atomic type, the only
// legal base class for an enum.
func isAtomicInteger(id int) bool {
	switch id {
	case TypeByte, TypeUByte, TypeShort, TypeUShort, TypeInt, TypeUInt,
		TypeInt64, TypeUInt64:
		return true
	}
	return false
}

// RefCount returns the number of variables, attributes, and compound
// fields depending on this type. Always 0 for atomic types.
func (t *TypeInfo) RefCount() int {
	return t.refCount
}

// Retain increments the reference count. A no-op for atomic types, which
// are never deletable.
func (t *TypeInfo) Retain() {
	if t.Class == ClassAtomic {
		return
	}
	t.refCount++
}

// Release decrements the reference count. A no-op for atomic types.
func (t *TypeInfo) Release() {
	if t.Class == ClassAtomic {
		return
	}
	if t.refCount > 0 {
		t.refCount--
	}
}

// Fields returns the compound fields in declaration order, or nil for
// non-compound types.
func (t *TypeInfo) Fields() []*CompoundField {
	if t.Compound == nil {
		return nil
	}
	objs := t.Compound.Fields.All()
	fields := make([]*CompoundField, len(objs))
	for i, o := range objs {
		fields[i] = o.(*CompoundField)
	}
	return fields
}

// Members returns the enum members in declaration order, or nil for
// non-enum types.
func (t *TypeInfo) Members() []EnumMember {
	if t.Enum == nil {
		return nil
	}
	return t.Enum.Members
}

// fullyDefined reports whether the type can be referenced by a new member
// field: atomic and opaque types always, compound types once they carry at
// least one field, enums once they carry at least one member.
func (t *TypeInfo) fullyDefined() bool {
	switch t.Class {
	case ClassAtomic, ClassOpaque, ClassVLen:
		return true
	case ClassCompound:
		return t.Compound.Fields.Len() > 0
	case ClassEnum:
		return len(t.Enum.Members) > 0
	}
	return false
}

// mutable fails unless the type is a user-defined, uncommitted type of the
// wanted class. Committed types are immutable.
func (t *TypeInfo) mutable(want TypeClass) error {
	if t.Class != want {
		return ncerr.Newf(ncerr.InvalidModeForOperation, "type is %s, not %s", t.Class, want).
			WithObject("type", t.Name)
	}
	if t.Committed {
		return ncerr.New(ncerr.InvalidModeForOperation, "type is committed and immutable").
			WithObject("type", t.Name)
	}
	return nil
}

// contains reports whether t (transitively) contains target through
// compound fields or vlen bases, using resolve to map field type ids to
// types. Used to keep size computation total and acyclic.
func (t *TypeInfo) contains(target *TypeInfo, resolve func(int) *TypeInfo) bool {
	if t == target {
		return true
	}
	switch t.Class {
	case ClassCompound:
		for _, fld := range t.Fields() {
			ft := resolve(fld.TypeID)
			if ft != nil && ft.contains(target, resolve) {
				return true
			}
		}
	case ClassVLen:
		bt := resolve(t.VLen.BaseTypeID)
		if bt != nil && bt.contains(target, resolve) {
			return true
		}
	case ClassEnum:
		bt := resolve(t.Enum.BaseTypeID)
		if bt != nil && bt.contains(target, resolve) {
			return true
		}
	}
	return false
}
