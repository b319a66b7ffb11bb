package meta

import (
	"go.uber.org/zap"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// AddGroup creates a child group under parent. Only sibling groups compete
// for the name: groups and dims/vars/types/atts occupy separate namespaces.
func (f *File) AddGroup(parent *Group, name string) (*Group, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if err := f.enterDefine(); err != nil {
		return nil, err
	}
	if _, ok := parent.Children.LookupByName(norm); ok {
		return nil, ncerr.New(ncerr.NameCollision, "group name already in use").
			WithObject("group", norm)
	}

	g := newGroup(f, parent, norm, f.nextGroupID)
	if err := parent.Children.Insert(g); err != nil {
		return nil, err
	}
	f.nextGroupID++
	f.groups[g.ID] = g
	f.dirty = true
	f.log.Debug("group defined",
		zap.String("instance", f.instance.String()),
		zap.String("path", g.FullPath()),
		zap.Int("id", g.ID))
	return g, nil
}

// AddDimension defines a dimension in g. An unlimited dimension starts at
// the given length (usually 0) and may grow afterwards. If g already holds
// a variable with the same name, the two are linked as a coordinate pair.
func (f *File) AddDimension(g *Group, name string, length uint64, unlimited bool) (*Dimension, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if err := f.enterDefine(); err != nil {
		return nil, err
	}
	if _, ok := g.Dims.LookupByName(norm); ok {
		return nil, ncerr.New(ncerr.NameCollision, "dimension name already in use").
			WithObject("dimension", norm)
	}

	d := &Dimension{
		Header:    NewHeader(KindDimension, norm, f.nextDimID),
		Group:     g,
		Len:       length,
		Unlimited: unlimited,
	}
	if err := g.Dims.Insert(d); err != nil {
		return nil, err
	}
	f.nextDimID++
	f.dims[d.ID] = d
	if obj, ok := g.Vars.LookupByName(norm); ok {
		d.CoordVar = obj.(*Variable)
	}
	f.dirty = true
	f.log.Debug("dimension defined",
		zap.String("instance", f.instance.String()),
		zap.String("group", g.FullPath()),
		zap.String("name", norm),
		zap.Int("id", d.ID),
		zap.Uint64("len", length),
		zap.Bool("unlimited", unlimited))
	return d, nil
}

// GrowDimension extends an unlimited dimension to newLen. Growth is
// monotonic; fixed dimensions never change length.
func (f *File) GrowDimension(d *Dimension, newLen uint64) error {
	if !d.Unlimited {
		return ncerr.New(ncerr.InvalidArgument, "dimension is not unlimited").
			WithObject("dimension", d.Name)
	}
	if d.TooLong {
		return ncerr.New(ncerr.InvalidArgument, "dimension length exceeds local word size").
			WithObject("dimension", d.Name)
	}
	if newLen < d.Len {
		return ncerr.Newf(ncerr.InvalidArgument,
			"dimension may only grow: %d < current %d", newLen, d.Len).
			WithObject("dimension", d.Name)
	}
	if newLen == d.Len {
		return nil
	}
	d.Len = newLen
	d.Extended = true
	f.dirty = true
	return nil
}

// DeleteDimension removes an unused dimension from its group. Fails with
// DimensionInUse while any variable still references it.
func (f *File) DeleteDimension(d *Dimension) error {
	if err := f.enterDefine(); err != nil {
		return err
	}
	if v := f.dimReferencer(d); v != nil {
		return ncerr.Newf(ncerr.DimensionInUse,
			"referenced by variable %q", v.Name).
			WithObject("dimension", d.Name)
	}
	if err := d.Group.Dims.Remove(d); err != nil {
		return err
	}
	if d.CoordVar != nil {
		d.CoordVar.WasCoordVar = true
		d.CoordVar = nil
	}
	delete(f.dims, d.ID)
	f.dirty = true
	return nil
}

// dimReferencer returns some variable referencing d, or nil. Only
// variables in d's group subtree can see d, so the walk is bounded there.
func (f *File) dimReferencer(d *Dimension) *Variable {
	var found *Variable
	walkGroups(d.Group, func(g *Group) {
		if found != nil {
			return
		}
		for _, v := range g.Variables() {
			for _, id := range v.DimIDs {
				if id == d.ID {
					found = v
					return
				}
			}
		}
	})
	return found
}

// AddVariable defines a variable in g with the given type and ordered
// dimension list. Every dimension must be visible from g (own or ancestor
// scope); a sibling or descendant group's dimension is a ScopeViolation.
func (f *File) AddVariable(g *Group, name string, typeID int, dimIDs []int) (*Variable, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if err := f.enterDefine(); err != nil {
		return nil, err
	}
	if _, ok := g.Vars.LookupByName(norm); ok {
		return nil, ncerr.New(ncerr.NameCollision, "variable name already in use").
			WithObject("variable", norm)
	}
	t, ok := f.TypeByID(typeID)
	if !ok {
		return nil, ncerr.Newf(ncerr.NotFound, "type %d not found", typeID).
			WithObject("variable", norm)
	}
	for _, dimID := range dimIDs {
		d, ok := f.DimensionByID(dimID)
		if !ok {
			return nil, ncerr.Newf(ncerr.NotFound, "dimension %d not found", dimID).
				WithObject("variable", norm)
		}
		if !visibleFrom(d.Group, g) {
			return nil, ncerr.Newf(ncerr.ScopeViolation,
				"dimension %q belongs to %q, not visible from %q",
				d.Name, d.Group.FullPath(), g.FullPath()).
				WithObject("variable", norm)
		}
	}

	// Variable ids are positional within the group.
	v := &Variable{
		Header: NewHeader(KindVariable, norm, f.nextVarID(g)),
		Group:  g,
		DimIDs: append([]int(nil), dimIDs...),
		TypeID: typeID,
		Atts:   NewIndex(),
		IsNew:  true,
	}
	if err := g.Vars.Insert(v); err != nil {
		return nil, err
	}
	t.Retain()
	if obj, ok := g.Dims.LookupByName(norm); ok {
		d := obj.(*Dimension)
		if d.CoordVar == nil {
			d.CoordVar = v
		}
	}
	f.dirty = true
	f.log.Debug("variable defined",
		zap.String("instance", f.instance.String()),
		zap.String("group", g.FullPath()),
		zap.String("name", norm),
		zap.Int("id", v.ID),
		zap.Int("type", typeID),
		zap.Int("rank", len(dimIDs)))
	return v, nil
}

// nextVarID returns the next positional variable id within a group,
// stable across removals of other variables.
func (f *File) nextVarID(g *Group) int {
	next := 0
	for _, v := range g.Variables() {
		if v.ID >= next {
			next = v.ID + 1
		}
	}
	return next
}

// DeleteVariable removes v from its group, releasing its type reference,
// its attributes' type references, and any coordinate pairing.
func (f *File) DeleteVariable(v *Variable) error {
	if err := f.enterDefine(); err != nil {
		return err
	}
	if err := v.Group.Vars.Remove(v); err != nil {
		return err
	}
	f.releaseVariable(v)
	f.dirty = true
	return nil
}

// releaseVariable drops every reference v holds. The caller has already
// removed v from its group.
func (f *File) releaseVariable(v *Variable) {
	if t, ok := f.TypeByID(v.TypeID); ok {
		t.Release()
	}
	for _, o := range v.Atts.All() {
		a := o.(*Attribute)
		if t, ok := f.TypeByID(a.TypeID); ok {
			t.Release()
		}
	}
	if obj, ok := v.Group.Dims.LookupByName(v.Name); ok {
		d := obj.(*Dimension)
		if d.CoordVar == v {
			d.CoordVar = nil
		}
	}
}

// PutAttribute creates or overwrites an attribute on owner (a *Group or
// *Variable). Attribute value changes are legal in any mode; the attribute
// is marked dirty until the flush collaborator consumes it. Reserved
// read-only and hidden names are rejected.
func (f *File) PutAttribute(owner Object, name string, val AttrValue) (*Attribute, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if r := FindReserved(norm); r != nil && r.Flags&(AttrFlagReadOnly|AttrFlagHidden) != 0 {
		return nil, ncerr.New(ncerr.AttrReadOnly, "reserved attribute").
			WithObject("attribute", norm)
	}
	t, ok := f.TypeByID(val.TypeID)
	if !ok {
		return nil, ncerr.Newf(ncerr.NotFound, "type %d not found", val.TypeID).
			WithObject("attribute", norm)
	}

	idx, v, err := f.attrIndex(owner)
	if err != nil {
		return nil, err
	}

	if obj, ok := idx.LookupByName(norm); ok {
		a := obj.(*Attribute)
		if a.TypeID != val.TypeID {
			if old, ok := f.TypeByID(a.TypeID); ok {
				old.Release()
			}
			t.Retain()
			a.TypeID = val.TypeID
		}
		a.Count = val.Count
		a.Bytes = val.Bytes
		a.Strings = val.Strings
		a.Dirty = true
		f.markAttrDirty(v)
		if v != nil && norm == "_FillValue" {
			v.FillValueChanged = v.Created
			v.FillValue = val.Bytes
		}
		return a, nil
	}

	a := &Attribute{
		Header:  NewHeader(KindAttribute, norm, nextAttrID(idx)),
		Owner:   owner,
		TypeID:  val.TypeID,
		Count:   val.Count,
		Bytes:   val.Bytes,
		Strings: val.Strings,
		Dirty:   true,
	}
	if err := idx.Insert(a); err != nil {
		return nil, err
	}
	t.Retain()
	f.markAttrDirty(v)
	if v != nil && norm == "_FillValue" {
		v.FillValueChanged = v.Created
		v.FillValue = val.Bytes
	}
	return a, nil
}

// DeleteAttribute removes an attribute from owner by name.
func (f *File) DeleteAttribute(owner Object, name string) error {
	norm, err := Normalize(name)
	if err != nil {
		return err
	}
	if r := FindReserved(norm); r != nil && r.Flags&(AttrFlagReadOnly|AttrFlagHidden) != 0 {
		return ncerr.New(ncerr.AttrReadOnly, "reserved attribute").
			WithObject("attribute", norm)
	}
	idx, v, err := f.attrIndex(owner)
	if err != nil {
		return err
	}
	obj, ok := idx.LookupByName(norm)
	if !ok {
		return ncerr.New(ncerr.NotFound, "no such attribute").
			WithObject("attribute", norm)
	}
	a := obj.(*Attribute)
	if err := idx.Remove(a); err != nil {
		return err
	}
	if t, ok := f.TypeByID(a.TypeID); ok {
		t.Release()
	}
	f.markAttrDirty(v)
	f.dirty = true
	return nil
}

// attrIndex maps a polymorphic attribute owner to its attribute container.
func (f *File) attrIndex(owner Object) (*Index, *Variable, error) {
	switch o := owner.(type) {
	case *Group:
		return o.Atts, nil, nil
	case *Variable:
		return o.Atts, o, nil
	default:
		return nil, nil, ncerr.Newf(ncerr.InvalidArgument,
			"%s cannot own attributes", owner.Hdr().Kind)
	}
}

func (f *File) markAttrDirty(v *Variable) {
	if v != nil {
		v.AttrDirty = true
	}
	f.dirty = true
}

// nextAttrID returns the next attribute id for an owner: one past the
// largest live id. Attribute ids are per-owner positions, not container
// ids; deleting the highest-id attribute makes its id available again.
func nextAttrID(idx *Index) int {
	next := 0
	for _, o := range idx.All() {
		if id := o.Hdr().ID; id >= next {
			next = id + 1
		}
	}
	return next
}

// RenameGroup renames a non-root group within its parent.
func (f *File) RenameGroup(g *Group, newName string) error {
	if g.IsRoot() {
		return ncerr.New(ncerr.InvalidArgument, "root group cannot be renamed").
			WithObject("group", g.Name)
	}
	norm, err := Normalize(newName)
	if err != nil {
		return err
	}
	if err := f.enterDefine(); err != nil {
		return err
	}
	old := g.Name
	g.Name = norm
	g.Hash = NameHash(norm)
	if err := g.Parent.Children.Rekey(g, old); err != nil {
		g.Name = old
		g.Hash = NameHash(old)
		return err
	}
	f.dirty = true
	return nil
}

// RenameDimension renames a dimension. Coordinate pairing is re-evaluated
// after a successful rename: an existing pairing under the old name breaks,
// and a variable matching the new name becomes the coordinate variable.
func (f *File) RenameDimension(d *Dimension, newName string) error {
	norm, err := Normalize(newName)
	if err != nil {
		return err
	}
	if err := f.enterDefine(); err != nil {
		return err
	}
	old := d.Name
	d.Name = norm
	d.Hash = NameHash(norm)
	if err := d.Group.Dims.Rekey(d, old); err != nil {
		d.Name = old
		d.Hash = NameHash(old)
		return err
	}
	if d.CoordVar != nil && d.CoordVar.Name != norm {
		d.CoordVar.WasCoordVar = true
		d.CoordVar = nil
	}
	if obj, ok := d.Group.Vars.LookupByName(norm); ok {
		v := obj.(*Variable)
		d.CoordVar = v
		v.BecameCoordVar = true
	}
	f.dirty = true
	return nil
}

// RenameVariable renames a variable, re-evaluating coordinate pairing the
// same way RenameDimension does.
func (f *File) RenameVariable(v *Variable, newName string) error {
	norm, err := Normalize(newName)
	if err != nil {
		return err
	}
	if err := f.enterDefine(); err != nil {
		return err
	}
	old := v.Name
	v.Name = norm
	v.Hash = NameHash(norm)
	if err := v.Group.Vars.Rekey(v, old); err != nil {
		v.Name = old
		v.Hash = NameHash(old)
		return err
	}
	if obj, ok := v.Group.Dims.LookupByName(old); ok {
		d := obj.(*Dimension)
		if d.CoordVar == v {
			d.CoordVar = nil
			v.WasCoordVar = true
		}
	}
	if obj, ok := v.Group.Dims.LookupByName(norm); ok {
		d := obj.(*Dimension)
		if d.CoordVar == nil {
			d.CoordVar = v
			v.BecameCoordVar = true
		}
	}
	f.dirty = true
	return nil
}

// DeleteGroup removes a group and everything it owns, depth first. The
// whole subtree is pre-checked top-down before any destructive mutation:
// a deep failure never leaves a half-deleted tree. Removal then proceeds
// bottom-up, releasing dependents before dependencies: child groups, then
// variables (which release their type references), then types, then
// dimensions, then attributes, then the group itself.
func (f *File) DeleteGroup(g *Group) error {
	if err := f.enterDefine(); err != nil {
		return err
	}
	if err := f.precheckGroupDelete(g); err != nil {
		return err
	}
	f.deleteGroup(g)
	f.dirty = true
	return nil
}

// precheckGroupDelete verifies every descendant can be deleted. Type
// reference counts must be fully accounted for by references inside the
// subtree; scoping guarantees outside references cannot exist, so any
// shortfall means the bookkeeping is inconsistent and deletion must not
// proceed.
func (f *File) precheckGroupDelete(g *Group) error {
	internal := make(map[int]int)
	walkGroups(g, func(sub *Group) {
		count := func(typeID int) {
			if !IsAtomic(typeID) {
				internal[typeID]++
			}
		}
		for _, v := range sub.Variables() {
			count(v.TypeID)
			for _, o := range v.Atts.All() {
				count(o.(*Attribute).TypeID)
			}
		}
		for _, o := range sub.Atts.All() {
			count(o.(*Attribute).TypeID)
		}
		for _, t := range sub.UserTypes() {
			for _, fld := range t.Fields() {
				count(fld.TypeID)
			}
			if t.VLen != nil {
				count(t.VLen.BaseTypeID)
			}
		}
	})

	var bad *TypeInfo
	walkGroups(g, func(sub *Group) {
		if bad != nil {
			return
		}
		for _, t := range sub.UserTypes() {
			if t.RefCount() > internal[t.ID] {
				bad = t
				return
			}
		}
	})
	if bad != nil {
		return ncerr.Newf(ncerr.TypeInUse,
			"referenced outside the deleted subtree").
			WithObject("type", bad.Name)
	}
	return nil
}

// deleteGroup performs the physical bottom-up removal; the pre-check has
// already promised it cannot fail.
func (f *File) deleteGroup(g *Group) {
	for _, child := range g.Groups() {
		f.deleteGroup(child)
	}
	for _, v := range g.Variables() {
		g.Vars.Remove(v) //nolint:errcheck // membership established above
		f.releaseVariable(v)
	}
	for _, t := range g.UserTypes() {
		for _, fld := range t.Fields() {
			if ft, ok := f.TypeByID(fld.TypeID); ok {
				ft.Release()
			}
		}
		if t.VLen != nil {
			if bt, ok := f.TypeByID(t.VLen.BaseTypeID); ok {
				bt.Release()
			}
		}
		g.Types.Remove(t) //nolint:errcheck
		delete(f.types, t.ID)
	}
	for _, d := range g.Dimensions() {
		g.Dims.Remove(d) //nolint:errcheck
		delete(f.dims, d.ID)
	}
	for _, o := range g.Atts.All() {
		a := o.(*Attribute)
		g.Atts.Remove(a) //nolint:errcheck
		if t, ok := f.TypeByID(a.TypeID); ok {
			t.Release()
		}
	}
	if g.Parent != nil {
		g.Parent.Children.Remove(g) //nolint:errcheck
	}
	delete(f.groups, g.ID)
	if g == f.root {
		f.root = nil
	}
	f.log.Debug("group deleted",
		zap.String("instance", f.instance.String()),
		zap.String("name", g.Name),
		zap.Int("id", g.ID))
}

// walkGroups visits g and every descendant, parents first.
func walkGroups(g *Group, fn func(*Group)) {
	fn(g)
	for _, child := range g.Groups() {
		walkGroups(child, fn)
	}
}
