package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

func TestCreateFile(t *testing.T) {
	f := CreateFile(WithLogger(zap.NewNop()))

	require.NotNil(t, f.Root())
	assert.Equal(t, RootGroupName, f.Root().Name)
	assert.Equal(t, 0, f.Root().ID)
	assert.True(t, f.Root().IsRoot())
	assert.Equal(t, ModeCreating, f.Mode())
	assert.False(t, f.Dirty())
	assert.NotEmpty(t, f.Instance())
}

func TestModeMachine(t *testing.T) {
	f := CreateFile()

	// First structural declaration moves Creating to Defining.
	_, err := f.AddDimension(f.Root(), "x", 10, false)
	require.NoError(t, err)
	assert.Equal(t, ModeDefining, f.Mode())

	require.NoError(t, f.EndDefs())
	assert.Equal(t, ModeData, f.Mode())

	// Structural mutation is illegal in data mode.
	_, err = f.AddDimension(f.Root(), "y", 5, false)
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))

	require.NoError(t, f.Redefine())
	assert.Equal(t, ModeRedefining, f.Mode())
	assert.True(t, f.Redefining())

	_, err = f.AddDimension(f.Root(), "y", 5, false)
	require.NoError(t, err)

	require.NoError(t, f.EndDefs())
	assert.Equal(t, ModeData, f.Mode())
	assert.False(t, f.Redefining())

	err = f.Redefine()
	require.NoError(t, err)
	err = f.Redefine()
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err),
		"redefine is only legal from data mode")
}

func TestEndDefs_ValidationFailureLeavesMode(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	// A referenced compound type with no fields blocks the transition.
	c, err := f.AddCompoundType(root, "empty", 8)
	require.NoError(t, err)
	_, err = f.AddVariable(root, "v", c.ID, nil)
	require.NoError(t, err)

	err = f.EndDefs()
	require.Error(t, err)
	assert.Equal(t, ModeDefining, f.Mode(), "failed EndDefs must not change mode")

	require.NoError(t, f.AddCompoundField(c, "a", 0, TypeDouble, nil))
	require.NoError(t, f.EndDefs())
	assert.Equal(t, ModeData, f.Mode())
}

func TestReadOnlyFile(t *testing.T) {
	f := CreateFile(ReadOnly())
	_, err := f.AddDimension(f.Root(), "x", 1, false)
	require.NoError(t, err, "in-memory structural staging is allowed")

	err = f.EndDefs()
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
	err = f.Redefine()
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
}

func TestMarkDataWrite(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	v, err := f.AddVariable(root, "temp", TypeFloat, nil)
	require.NoError(t, err)

	// New variables accept data during define mode.
	require.NoError(t, f.MarkDataWrite(v))
	assert.True(t, v.WrittenTo)

	require.NoError(t, f.EndDefs())
	f.MarkFlushed()
	require.NoError(t, f.MarkDataWrite(v))

	// An existing variable rejects writes while redefining.
	require.NoError(t, f.Redefine())
	err = f.MarkDataWrite(v)
	assert.Equal(t, ncerr.InvalidModeForOperation, ncerr.CodeOf(err))
}

func TestScenario_TempVariableOverDimensionX(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	x, err := f.AddDimension(root, "x", 10, false)
	require.NoError(t, err)

	_, err = f.AddVariable(root, "temp", TypeFloat, []int{x.ID})
	require.NoError(t, err)

	got, err := f.FindVariable(root, "temp")
	require.NoError(t, err)
	require.Equal(t, 1, got.Rank())

	d, ok := f.DimensionByID(got.DimIDs[0])
	require.True(t, ok)
	assert.Equal(t, "x", d.Name)
	assert.Equal(t, uint64(10), d.Len)
}

func TestCoordinateVariablePairing(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	// Dimension first, then the variable of the same name.
	x, err := f.AddDimension(root, "x", 10, false)
	require.NoError(t, err)
	xv, err := f.AddVariable(root, "x", TypeDouble, []int{x.ID})
	require.NoError(t, err)
	assert.Equal(t, xv, x.CoordVar)
	assert.True(t, xv.IsCoordVar())

	// Variable first, then the dimension.
	tv, err := f.AddVariable(root, "t", TypeDouble, nil)
	require.NoError(t, err)
	td, err := f.AddDimension(root, "t", 0, true)
	require.NoError(t, err)
	assert.Equal(t, tv, td.CoordVar)
}

func TestRenameReevaluatesCoordinatePairing(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	x, err := f.AddDimension(root, "x", 10, false)
	require.NoError(t, err)
	xv, err := f.AddVariable(root, "x", TypeDouble, []int{x.ID})
	require.NoError(t, err)
	require.Equal(t, xv, x.CoordVar)

	// Renaming the variable away breaks the pairing.
	require.NoError(t, f.RenameVariable(xv, "distance"))
	assert.Nil(t, x.CoordVar)
	assert.True(t, xv.WasCoordVar)

	// Renaming it back re-links.
	require.NoError(t, f.RenameVariable(xv, "x"))
	assert.Equal(t, xv, x.CoordVar)
	assert.True(t, xv.BecameCoordVar)
}

func TestRenameCollision(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	_, err := f.AddDimension(root, "x", 1, false)
	require.NoError(t, err)
	y, err := f.AddDimension(root, "y", 2, false)
	require.NoError(t, err)

	err = f.RenameDimension(y, "x")
	assert.Equal(t, ncerr.NameCollision, ncerr.CodeOf(err))
	assert.Equal(t, "y", y.Name, "failed rename must roll back the header")

	d, err := f.FindDimension(root, "y")
	require.NoError(t, err)
	assert.Equal(t, y, d)
}

func TestGrowDimension(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	rec, err := f.AddDimension(root, "record", 0, true)
	require.NoError(t, err)
	fixed, err := f.AddDimension(root, "level", 20, false)
	require.NoError(t, err)

	require.NoError(t, f.GrowDimension(rec, 100))
	assert.Equal(t, uint64(100), rec.Len)
	assert.True(t, rec.Extended)

	err = f.GrowDimension(rec, 50)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err), "growth is monotonic")

	err = f.GrowDimension(fixed, 30)
	assert.Equal(t, ncerr.InvalidArgument, ncerr.CodeOf(err))
}

func TestAttributeLifecycle(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	v, err := f.AddVariable(root, "temp", TypeFloat, nil)
	require.NoError(t, err)
	require.NoError(t, f.EndDefs())
	f.MarkFlushed()
	assert.False(t, f.Dirty())

	// Attribute value changes are legal in data mode.
	a, err := f.PutAttribute(v, "units", AttrValue{TypeID: TypeChar, Count: 1, Strings: []string{"K"}})
	require.NoError(t, err)
	assert.True(t, a.Dirty)
	assert.True(t, v.AttrDirty)
	assert.True(t, f.Dirty())

	// Overwrite keeps the attribute id.
	id := a.ID
	a2, err := f.PutAttribute(v, "units", AttrValue{TypeID: TypeChar, Count: 1, Strings: []string{"degC"}})
	require.NoError(t, err)
	assert.Equal(t, id, a2.ID)
	assert.Equal(t, []string{"degC"}, a2.Strings)

	f.MarkFlushed()
	assert.False(t, a2.Dirty)
	assert.True(t, a2.Created)

	require.NoError(t, f.DeleteAttribute(v, "units"))
	err = f.DeleteAttribute(v, "units")
	assert.Equal(t, ncerr.NotFound, ncerr.CodeOf(err))
}

func TestReservedAttributesAreGated(t *testing.T) {
	f := CreateFile()
	root := f.Root()

	_, err := f.PutAttribute(root, "_NCProperties", AttrValue{TypeID: TypeChar, Count: 1})
	assert.Equal(t, ncerr.AttrReadOnly, ncerr.CodeOf(err))

	v, err := f.AddVariable(root, "temp", TypeFloat, nil)
	require.NoError(t, err)
	_, err = f.PutAttribute(v, "DIMENSION_LIST", AttrValue{TypeID: TypeInt, Count: 1})
	assert.Equal(t, ncerr.AttrReadOnly, ncerr.CodeOf(err))

	// _FillValue is materialized but writable.
	_, err = f.PutAttribute(v, "_FillValue", AttrValue{TypeID: TypeFloat, Count: 1, Bytes: []byte{0, 0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, v.FillValue)
}

func TestAttributeTypeMustExist(t *testing.T) {
	f := CreateFile()
	_, err := f.PutAttribute(f.Root(), "history", AttrValue{TypeID: 77, Count: 1})
	assert.Equal(t, ncerr.NotFound, ncerr.CodeOf(err))
}

func TestDefaultFillValues(t *testing.T) {
	v, ok := DefaultFillValue(TypeFloat)
	require.True(t, ok)
	assert.Equal(t, FillFloat, v)

	_, ok = DefaultFillValue(FirstUserTypeID)
	assert.False(t, ok)
}
