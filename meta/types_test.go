package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

func TestAtomicTypes(t *testing.T) {
	for id := 1; id <= MaxAtomicType; id++ {
		at, ok := AtomicType(id)
		require.True(t, ok, "atomic id %d", id)
		assert.Equal(t, ClassAtomic, at.Class)
		assert.True(t, at.Committed)
		assert.NotZero(t, at.SizeBytes)
	}

	_, ok := AtomicType(0)
	assert.False(t, ok)
	_, ok = AtomicType(FirstUserTypeID)
	assert.False(t, ok)

	dt, ok := AtomicTypeByName("double")
	require.True(t, ok)
	assert.Equal(t, TypeDouble, dt.ID)
	assert.Equal(t, uint64(8), dt.SizeBytes)
}

func TestCompoundType_SizeAndFields(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	point, err := f.AddCompoundType(root, "point", 8)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(point, "x", 0, TypeFloat, nil))
	require.NoError(t, f.AddCompoundField(point, "y", 4, TypeFloat, nil))

	size, err := f.TypeSize(point.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), size)

	fields := point.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "y", fields[1].Name)
	assert.Equal(t, uint64(4), fields[1].Offset)
}

func TestCompoundType_SelfReferenceFails(t *testing.T) {
	f := CreateFile()
	point, err := f.AddCompoundType(f.Root(), "point", 8)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(point, "x", 0, TypeFloat, nil))
	require.NoError(t, f.AddCompoundField(point, "y", 4, TypeFloat, nil))

	err = f.AddCompoundField(point, "self", 8, point.ID, nil)
	assert.Equal(t, ncerr.CyclicTypeDefinition, ncerr.CodeOf(err))
	assert.Len(t, point.Fields(), 2, "failed field add must leave the type unmodified")
}

func TestCompoundType_TransitiveCycleFails(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	inner, err := f.AddCompoundType(root, "inner", 8)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(inner, "a", 0, TypeDouble, nil))

	outer, err := f.AddCompoundType(root, "outer", 16)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(outer, "in", 0, inner.ID, nil))

	err = f.AddCompoundField(inner, "out", 8, outer.ID, nil)
	assert.Equal(t, ncerr.CyclicTypeDefinition, ncerr.CodeOf(err))
	assert.Len(t, inner.Fields(), 1)
}

func TestCompoundType_OffsetOverlapFails(t *testing.T) {
	f := CreateFile()
	c, err := f.AddCompoundType(f.Root(), "c", 16)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(c, "a", 0, TypeDouble, nil))

	err = f.AddCompoundField(c, "b", 4, TypeInt, nil)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err))
	assert.Len(t, c.Fields(), 1)

	require.NoError(t, f.AddCompoundField(c, "b", 8, TypeInt, nil))
}

func TestCompoundType_ArrayFieldExtent(t *testing.T) {
	f := CreateFile()
	c, err := f.AddCompoundType(f.Root(), "c", 4)
	require.NoError(t, err)
	// 2x3 array of floats occupies 24 bytes.
	require.NoError(t, f.AddCompoundField(c, "m", 0, TypeFloat, []int{2, 3}))

	size, err := f.TypeSize(c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(24), size, "computed size must cover the array field")

	err = f.AddCompoundField(c, "tail", 20, TypeInt, nil)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err), "overlap with array extent")
}

func TestEnumType(t *testing.T) {
	f := CreateFile()
	e, err := f.AddEnumType(f.Root(), "cloud", TypeByte)
	require.NoError(t, err)

	require.NoError(t, f.AddEnumMember(e, "clear", 0))
	require.NoError(t, f.AddEnumMember(e, "cumulus", 1))

	err = f.AddEnumMember(e, "clear", 2)
	assert.Equal(t, ncerr.NameCollision, ncerr.CodeOf(err))
	err = f.AddEnumMember(e, "stratus", 1)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err))
	assert.Len(t, e.Members(), 2)

	size, err := f.TypeSize(e.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), size, "enum size follows its base type")

	_, err = f.AddEnumType(f.Root(), "bad", TypeFloat)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err), "float base must be rejected")
}

func TestVLenType(t *testing.T) {
	f := CreateFile()
	v, err := f.AddVLenType(f.Root(), "profile", TypeFloat)
	require.NoError(t, err)
	assert.Equal(t, ClassVLen, v.Class)

	size, err := f.TypeSize(v.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(vlenMemSize), size)

	_, err = f.AddVLenType(f.Root(), "bad", 999)
	assert.Equal(t, ncerr.NotFound, ncerr.CodeOf(err))
}

func TestOpaqueType(t *testing.T) {
	f := CreateFile()
	o, err := f.AddOpaqueType(f.Root(), "blob", 37)
	require.NoError(t, err)

	size, err := f.TypeSize(o.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(37), size)

	_, err = f.AddOpaqueType(f.Root(), "empty", 0)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err))
}

func TestTypeRefCountGatesDeletion(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	e, err := f.AddEnumType(root, "flag", TypeInt)
	require.NoError(t, err)
	require.NoError(t, f.AddEnumMember(e, "off", 0))
	require.NoError(t, f.AddEnumMember(e, "on", 1))

	v, err := f.AddVariable(root, "status", e.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.RefCount())

	err = f.DeleteType(e)
	assert.Equal(t, ncerr.TypeInUse, ncerr.CodeOf(err))

	require.NoError(t, f.DeleteVariable(v))
	assert.Equal(t, 0, e.RefCount())
	require.NoError(t, f.DeleteType(e))

	_, ok := f.TypeByID(e.ID)
	assert.False(t, ok, "deleted type must leave the flat table")
}

func TestCommittedTypeIsImmutable(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	e, err := f.AddEnumType(root, "flag", TypeInt)
	require.NoError(t, err)
	require.NoError(t, f.AddEnumMember(e, "off", 0))
	_, err = f.AddVariable(root, "status", e.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.EndDefs())
	require.True(t, e.Committed, "referenced types commit at end of definitions")

	require.NoError(t, f.Redefine())
	err = f.AddEnumMember(e, "on", 1)
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
}

func TestTypeMutationRequiresDefineMode(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	// Unreferenced types stay uncommitted across EndDefs; the mode gate
	// must still refuse structural mutation in data mode.
	e, err := f.AddEnumType(root, "flag", TypeInt)
	require.NoError(t, err)
	require.NoError(t, f.AddEnumMember(e, "off", 0))
	c, err := f.AddCompoundType(root, "pair", 8)
	require.NoError(t, err)
	require.NoError(t, f.AddCompoundField(c, "x", 0, TypeFloat, nil))

	require.NoError(t, f.EndDefs())
	require.False(t, e.Committed)

	err = f.AddEnumMember(e, "on", 1)
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
	assert.Len(t, e.Members(), 1)

	err = f.AddCompoundField(c, "y", 4, TypeFloat, nil)
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
	assert.Len(t, c.Fields(), 1)

	// Re-entering define mode makes the uncommitted types mutable again.
	require.NoError(t, f.Redefine())
	require.NoError(t, f.AddEnumMember(e, "on", 1))
	require.NoError(t, f.AddCompoundField(c, "y", 4, TypeFloat, nil))
}

func TestAtomicRetainReleaseAreNops(t *testing.T) {
	ft, _ := AtomicType(TypeFloat)
	ft.Retain()
	ft.Retain()
	assert.Equal(t, 0, ft.RefCount())
	ft.Release()
	assert.Equal(t, 0, ft.RefCount())
}
