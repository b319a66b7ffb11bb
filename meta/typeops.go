package meta

import (
	"go.uber.org/zap"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// newUserType allocates the shared part of a user-defined type and
// registers it in g and in the file-wide flat table.
func (f *File) newUserType(g *Group, name string, class TypeClass, size uint64) (*TypeInfo, error) {
	norm, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if err := f.enterDefine(); err != nil {
		return nil, err
	}
	if _, ok := g.Types.LookupByName(norm); ok {
		return nil, ncerr.New(ncerr.NameCollision, "type name already in use").
			WithObject("type", norm)
	}

	t := &TypeInfo{
		Header:    NewHeader(KindType, norm, f.nextTypeID),
		Container: g,
		Class:     class,
		SizeBytes: size,
	}
	switch class {
	case ClassCompound:
		t.Compound = &CompoundPayload{Fields: NewIndex()}
	case ClassEnum:
		t.Enum = &EnumPayload{}
	case ClassVLen:
		t.VLen = &VLenPayload{}
	}
	if err := g.Types.Insert(t); err != nil {
		return nil, err
	}
	f.nextTypeID++
	f.types[t.ID] = t
	f.dirty = true
	f.log.Debug("type defined",
		zap.String("instance", f.instance.String()),
		zap.String("group", g.FullPath()),
		zap.String("name", norm),
		zap.Int("id", t.ID),
		zap.String("class", class.String()))
	return t, nil
}

// AddCompoundType defines a compound type in g with the declared total
// byte size.
func (f *File) AddCompoundType(g *Group, name string, size uint64) (*TypeInfo, error) {
	if size == 0 {
		return nil, ncerr.New(ncerr.InvalidArgument, "compound size must be nonzero").
			WithObject("type", name)
	}
	return f.newUserType(g, name, ClassCompound, size)
}

// AddEnumType defines an enum type in g over an atomic integer base type.
func (f *File) AddEnumType(g *Group, name string, baseTypeID int) (*TypeInfo, error) {
	if !isAtomicInteger(baseTypeID) {
		return nil, ncerr.Newf(ncerr.InvalidArgument,
			"enum base must be an atomic integer type, got %d", baseTypeID).
			WithObject("type", name)
	}
	t, err := f.newUserType(g, name, ClassEnum, atomicSizes[baseTypeID])
	if err != nil {
		return nil, err
	}
	t.Enum.BaseTypeID = baseTypeID
	return t, nil
}

// AddVLenType defines a variable-length type in g whose elements are
// sequences of the base type. The base must already be fully defined.
func (f *File) AddVLenType(g *Group, name string, baseTypeID int) (*TypeInfo, error) {
	base, ok := f.TypeByID(baseTypeID)
	if !ok {
		return nil, ncerr.Newf(ncerr.NotFound, "base type %d not found", baseTypeID).
			WithObject("type", name)
	}
	if !base.fullyDefined() {
		return nil, ncerr.New(ncerr.InvalidArgument, "base type is not fully defined").
			WithObject("type", name)
	}
	t, err := f.newUserType(g, name, ClassVLen, vlenMemSize)
	if err != nil {
		return nil, err
	}
	t.VLen.BaseTypeID = baseTypeID
	base.Retain()
	return t, nil
}

// AddOpaqueType defines an opaque type of the given fixed byte size.
func (f *File) AddOpaqueType(g *Group, name string, size uint64) (*TypeInfo, error) {
	if size == 0 {
		return nil, ncerr.New(ncerr.InvalidArgument, "opaque size must be nonzero").
			WithObject("type", name)
	}
	return f.newUserType(g, name, ClassOpaque, size)
}

// AddEnumMember appends a name=value member to an enum in progress. Both
// the name and the value must be unique within the enum.
func (f *File) AddEnumMember(t *TypeInfo, name string, value int64) error {
	if err := f.enterDefine(); err != nil {
		return err
	}
	if err := t.mutable(ClassEnum); err != nil {
		return err
	}
	norm, err := Normalize(name)
	if err != nil {
		return err
	}
	for _, m := range t.Enum.Members {
		if m.Name == norm {
			return ncerr.New(ncerr.NameCollision, "enum member name already in use").
				WithObject("type", t.Name)
		}
		if m.Value == value {
			return ncerr.Newf(ncerr.InvalidArgument,
				"enum value %d already used by member %q", value, m.Name).
				WithObject("type", t.Name)
		}
	}
	t.Enum.Members = append(t.Enum.Members, EnumMember{Name: norm, Value: value})
	f.dirty = true
	return nil
}

// AddCompoundField appends a field to a compound type in progress. The
// field type must already be fully defined: a compound type may not contain
// itself, directly or transitively, which keeps size computation total and
// acyclic. The field's byte extent must not overlap a previous field.
// On any failure the type is left unmodified.
func (f *File) AddCompoundField(t *TypeInfo, name string, offset uint64, fieldTypeID int, shape []int) error {
	if err := f.enterDefine(); err != nil {
		return err
	}
	if err := t.mutable(ClassCompound); err != nil {
		return err
	}
	norm, err := Normalize(name)
	if err != nil {
		return err
	}
	if _, ok := t.Compound.Fields.LookupByName(norm); ok {
		return ncerr.New(ncerr.NameCollision, "field name already in use").
			WithObject("type", t.Name)
	}
	ft, ok := f.TypeByID(fieldTypeID)
	if !ok {
		return ncerr.Newf(ncerr.NotFound, "field type %d not found", fieldTypeID).
			WithObject("field", norm)
	}
	if ft.contains(t, f.typeResolver) {
		return ncerr.Newf(ncerr.CyclicTypeDefinition,
			"field %q would make the type contain itself", norm).
			WithObject("type", t.Name)
	}
	if !ft.fullyDefined() {
		return ncerr.Newf(ncerr.InvalidArgument,
			"field type %q is not fully defined", ft.Name).
			WithObject("field", norm)
	}
	for _, n := range shape {
		if n <= 0 {
			return ncerr.Newf(ncerr.InvalidArgument,
				"field array shape must be positive, got %d", n).
				WithObject("field", norm)
		}
	}

	extent, err := f.fieldExtent(fieldTypeID, shape)
	if err != nil {
		return err
	}
	for _, prev := range t.Fields() {
		prevExtent, err := f.fieldExtent(prev.TypeID, prev.Shape)
		if err != nil {
			return err
		}
		if offset < prev.Offset+prevExtent && prev.Offset < offset+extent {
			return ncerr.Newf(ncerr.InvalidArgument,
				"field %q at offset %d overlaps field %q", norm, offset, prev.Name).
				WithObject("type", t.Name)
		}
	}

	fld := &CompoundField{
		Header: NewHeader(KindCompoundField, norm, t.Compound.Fields.Len()),
		TypeID: fieldTypeID,
		Offset: offset,
		Shape:  append([]int(nil), shape...),
	}
	if err := t.Compound.Fields.Insert(fld); err != nil {
		return err
	}
	ft.Retain()
	f.dirty = true
	return nil
}

// DeleteType removes a user-defined type from its group. Fails with
// TypeInUse while the reference count is nonzero.
func (f *File) DeleteType(t *TypeInfo) error {
	if t.Class == ClassAtomic {
		return ncerr.New(ncerr.InvalidArgument, "atomic types cannot be deleted").
			WithObject("type", t.Name)
	}
	if err := f.enterDefine(); err != nil {
		return err
	}
	if rc := t.RefCount(); rc > 0 {
		return ncerr.Newf(ncerr.TypeInUse, "reference count is %d", rc).
			WithObject("type", t.Name)
	}
	if err := t.Container.Types.Remove(t); err != nil {
		return err
	}
	for _, fld := range t.Fields() {
		if ft, ok := f.TypeByID(fld.TypeID); ok {
			ft.Release()
		}
	}
	if t.Class == ClassVLen {
		if bt, ok := f.TypeByID(t.VLen.BaseTypeID); ok {
			bt.Release()
		}
	}
	delete(f.types, t.ID)
	f.dirty = true
	return nil
}

// typeResolver maps a type id to its TypeInfo for recursive walks.
func (f *File) typeResolver(id int) *TypeInfo {
	t, _ := f.TypeByID(id)
	return t
}

// TypeSize computes the total byte size of a type, recursively expanding
// compound and array fields. Atomic types return their fixed size. The
// construction-time cycle checks make the recursion total; a cycle found
// here means the graph was corrupted externally.
func (f *File) TypeSize(typeID int) (uint64, error) {
	return f.typeSize(typeID, make(map[int]bool))
}

func (f *File) typeSize(typeID int, visiting map[int]bool) (uint64, error) {
	t, ok := f.TypeByID(typeID)
	if !ok {
		return 0, ncerr.Newf(ncerr.NotFound, "type %d not found", typeID)
	}
	if visiting[typeID] {
		return 0, ncerr.New(ncerr.CyclicTypeDefinition, "type size recursion").
			WithObject("type", t.Name)
	}

	switch t.Class {
	case ClassAtomic, ClassOpaque, ClassVLen, ClassEnum:
		return t.SizeBytes, nil
	case ClassCompound:
		visiting[typeID] = true
		defer delete(visiting, typeID)
		var end uint64
		for _, fld := range t.Fields() {
			fsize, err := f.typeSize(fld.TypeID, visiting)
			if err != nil {
				return 0, err
			}
			for _, n := range fld.Shape {
				fsize *= uint64(n)
			}
			if fld.Offset+fsize > end {
				end = fld.Offset + fsize
			}
		}
		if t.SizeBytes > end {
			return t.SizeBytes, nil
		}
		return end, nil
	default:
		return 0, ncerr.Newf(ncerr.InvalidArgument, "unknown type class %d", t.Class).
			WithObject("type", t.Name)
	}
}

// fieldExtent is the byte extent of one compound field: the field type's
// size times the product of the sub-array shape.
func (f *File) fieldExtent(typeID int, shape []int) (uint64, error) {
	size, err := f.TypeSize(typeID)
	if err != nil {
		return 0, err
	}
	for _, n := range shape {
		size *= uint64(n)
	}
	return size, nil
}
