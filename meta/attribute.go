package meta

// AttrValue is the value of an attribute as handed to PutAttribute: a
// declared element type, element count, and the raw value buffer. Text
// arrays use Strings instead of Bytes; both are never set at once.
type AttrValue struct {
	TypeID  int
	Count   int
	Bytes   []byte
	Strings []string
}

// Attribute is a named metadata value attached to a group or a variable.
// The owner is polymorphic: either *Group or *Variable.
type Attribute struct {
	Header
	Owner Object

	TypeID  int
	Count   int
	Bytes   []byte
	Strings []string

	// Dirty is set whenever the value changes and consumed by the flush
	// collaborator.
	Dirty bool
	// Created is set once the backend has materialized the attribute.
	Created bool
}

// OwnerVariable returns the owning variable, or nil when the attribute is
// attached to a group.
func (a *Attribute) OwnerVariable() *Variable {
	v, _ := a.Owner.(*Variable)
	return v
}

// OwnerGroup returns the owning group, or nil when the attribute is
// attached to a variable.
func (a *Attribute) OwnerGroup() *Group {
	g, _ := a.Owner.(*Group)
	return g
}

// Hidden reports whether the attribute carries a reserved name excluded
// from public enumeration. Name-only attributes stay reachable through
// LookupByName but never appear in listings.
func (a *Attribute) Hidden() bool {
	r := FindReserved(a.Name)
	return r != nil && r.Flags&(AttrFlagHidden|AttrFlagNameOnly) != 0
}
