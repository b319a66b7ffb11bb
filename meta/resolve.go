package meta

import (
	"strings"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// GroupByID resolves a group id through the file-wide flat table.
func (f *File) GroupByID(id int) (*Group, bool) {
	g, ok := f.groups[id]
	return g, ok
}

// DimensionByID resolves a dimension id through the file-wide flat table,
// independent of tree depth.
func (f *File) DimensionByID(id int) (*Dimension, bool) {
	d, ok := f.dims[id]
	return d, ok
}

// TypeByID resolves a type id: atomic ids through the static table, user
// ids through the file-wide flat table. Scope-independent.
func (f *File) TypeByID(id int) (*TypeInfo, bool) {
	if t, ok := AtomicType(id); ok {
		return t, true
	}
	t, ok := f.types[id]
	return t, ok
}

// visibleFrom reports whether an object owned by owner is visible from
// group g: owner must be g itself or an ancestor of g.
func visibleFrom(owner, g *Group) bool {
	for cur := g; cur != nil; cur = cur.Parent {
		if cur == owner {
			return true
		}
	}
	return false
}

// FindDimension resolves a dimension name against g and its ancestors,
// innermost scope first.
func (f *File) FindDimension(g *Group, name string) (*Dimension, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	for cur := g; cur != nil; cur = cur.Parent {
		if obj, ok := cur.Dims.LookupByName(norm); ok {
			return obj.(*Dimension), nil
		}
	}
	return nil, ncerr.New(ncerr.NotFound, "no visible dimension").
		WithObject("dimension", norm)
}

// FindType resolves a type name against g and its ancestors, innermost
// scope first. Atomic type names always resolve.
func (f *File) FindType(g *Group, name string) (*TypeInfo, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if t, ok := AtomicTypeByName(norm); ok {
		return t, nil
	}
	for cur := g; cur != nil; cur = cur.Parent {
		if obj, ok := cur.Types.LookupByName(norm); ok {
			return obj.(*TypeInfo), nil
		}
	}
	return nil, ncerr.New(ncerr.NotFound, "no visible type").
		WithObject("type", norm)
}

// FindVariable looks a variable up by name in one group (no scoping:
// variables are never inherited).
func (f *File) FindVariable(g *Group, name string) (*Variable, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	obj, ok := g.Vars.LookupByName(norm)
	if !ok {
		return nil, ncerr.New(ncerr.NotFound, "no such variable").
			WithObject("variable", norm)
	}
	return obj.(*Variable), nil
}

// GroupByPath resolves an absolute path ("/", "/model/ocean") to a group.
func (f *File) GroupByPath(path string) (*Group, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, ncerr.New(ncerr.NameInvalid, "path must be absolute").
			WithObject("group", path)
	}
	g := f.root
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		obj, ok := g.Children.LookupByName(part)
		if !ok {
			return nil, ncerr.New(ncerr.NotFound, "no such group").
				WithObject("group", path)
		}
		g = obj.(*Group)
	}
	return g, nil
}

// FindEqualType searches the whole container for a committed user type
// structurally equal to t. Used by backends to deduplicate types while
// assembling a graph.
func (f *File) FindEqualType(t *TypeInfo) (*TypeInfo, bool) {
	for _, cand := range f.types {
		if cand == t {
			continue
		}
		if f.typesEqual(cand, t) {
			return cand, true
		}
	}
	return nil, false
}

// typesEqual compares two types structurally: class, size, and the
// class-specific payload, following member type ids recursively.
func (f *File) typesEqual(a, b *TypeInfo) bool {
	if a.Class != b.Class || a.Name != b.Name {
		return false
	}
	switch a.Class {
	case ClassAtomic:
		return a.ID == b.ID
	case ClassOpaque:
		return a.SizeBytes == b.SizeBytes
	case ClassEnum:
		if a.Enum.BaseTypeID != b.Enum.BaseTypeID ||
			len(a.Enum.Members) != len(b.Enum.Members) {
			return false
		}
		for i, m := range a.Enum.Members {
			if b.Enum.Members[i] != m {
				return false
			}
		}
		return true
	case ClassVLen:
		return f.memberTypesEqual(a.VLen.BaseTypeID, b.VLen.BaseTypeID)
	case ClassCompound:
		af, bf := a.Fields(), b.Fields()
		if a.SizeBytes != b.SizeBytes || len(af) != len(bf) {
			return false
		}
		for i, fld := range af {
			other := bf[i]
			if fld.Name != other.Name || fld.Offset != other.Offset {
				return false
			}
			if len(fld.Shape) != len(other.Shape) {
				return false
			}
			for j, n := range fld.Shape {
				if other.Shape[j] != n {
					return false
				}
			}
			if !f.memberTypesEqual(fld.TypeID, other.TypeID) {
				return false
			}
		}
		return true
	}
	return false
}

func (f *File) memberTypesEqual(aID, bID int) bool {
	if aID == bID {
		return true
	}
	at, aok := f.TypeByID(aID)
	bt, bok := f.TypeByID(bID)
	if !aok || !bok {
		return false
	}
	return f.typesEqual(at, bt)
}
