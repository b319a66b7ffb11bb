package meta

import (
	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// Index is a dual-access ordered collection of metadata objects: O(1)
// amortized lookup by normalized name and by id, while preserving insertion
// order for enumeration. The container format distinguishes "the n-th
// declared dimension" (positional, stable) from "the dimension named X";
// one Index serves both without duplicating storage.
//
// Removal never renumbers surviving objects or shifts their relative order.
type Index struct {
	list   []Object
	byName map[string]Object
	byID   map[int]Object
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		byName: make(map[string]Object),
		byID:   make(map[int]Object),
	}
}

// Len returns the number of live objects
func (x *Index) Len() int {
	return len(x.list)
}

// Insert adds obj to the index. It fails with NameCollision if an object
// with the same normalized name is already present, and leaves the index
// untouched in that case.
func (x *Index) Insert(obj Object) error {
	hdr := obj.Hdr()
	if prev, ok := x.byName[hdr.Name]; ok {
		return ncerr.Newf(ncerr.NameCollision, "name already in use").
			WithObject(prev.Hdr().Kind.String(), hdr.Name)
	}
	x.list = append(x.list, obj)
	x.byName[hdr.Name] = obj
	x.byID[hdr.ID] = obj
	return nil
}

// LookupByName returns the live object with the given normalized name.
func (x *Index) LookupByName(name string) (Object, bool) {
	obj, ok := x.byName[name]
	return obj, ok
}

// LookupByID returns the live object with the given id
func (x *Index) LookupByID(id int) (Object, bool) {
	obj, ok := x.byID[id]
	return obj, ok
}

// At returns the i-th live object in insertion order
func (x *Index) At(i int) Object {
	return x.list[i]
}

// Remove deletes obj from both lookup maps and the ordered sequence.
// Surviving objects keep their ids and relative order. Returns NotFound
// if obj is not in the index.
func (x *Index) Remove(obj Object) error {
	hdr := obj.Hdr()
	cur, ok := x.byName[hdr.Name]
	if !ok || cur != obj {
		return ncerr.New(ncerr.NotFound, "object not in index").
			WithObject(hdr.Kind.String(), hdr.Name)
	}
	delete(x.byName, hdr.Name)
	delete(x.byID, hdr.ID)
	for i, o := range x.list {
		if o == obj {
			x.list = append(x.list[:i], x.list[i+1:]...)
			break
		}
	}
	return nil
}

// Rekey updates the name index after an object's name changed. The caller
// sets the new Name and Hash on the header first; oldName is the name the
// object was indexed under. Fails with NameCollision if the new name is
// taken, leaving the index unchanged.
func (x *Index) Rekey(obj Object, oldName string) error {
	hdr := obj.Hdr()
	if prev, ok := x.byName[hdr.Name]; ok && prev != obj {
		return ncerr.New(ncerr.NameCollision, "name already in use").
			WithObject(prev.Hdr().Kind.String(), hdr.Name)
	}
	delete(x.byName, oldName)
	x.byName[hdr.Name] = obj
	return nil
}

// All returns a snapshot slice of the live objects in insertion order.
// The slice is a copy: callers may mutate the index while ranging over it.
func (x *Index) All() []Object {
	out := make([]Object, len(x.list))
	copy(out, x.list)
	return out
}
