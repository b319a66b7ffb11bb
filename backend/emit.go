package backend

import (
	"github.com/cdfgraph/cdfgraph/meta"
)

// Describe emits the flat structural description of a container: every
// group with its dimensions, types, variables, and attributes, each in
// declaration order, with dirty flags intact for the flush collaborator.
// Describe never mutates the graph; clearing the dirty bookkeeping after a
// successful flush is the caller's job (File.MarkFlushed).
func Describe(f *meta.File) *Description {
	return &Description{Root: describeGroup(f, f.Root())}
}

func describeGroup(f *meta.File, g *meta.Group) GroupDesc {
	desc := GroupDesc{Name: g.Name, ID: g.ID}

	for _, d := range g.Dimensions() {
		desc.Dimensions = append(desc.Dimensions, DimDesc{
			Name:      d.Name,
			ID:        d.ID,
			Len:       d.Len,
			Unlimited: d.Unlimited,
		})
	}
	for _, t := range g.UserTypes() {
		desc.Types = append(desc.Types, describeType(t))
	}
	for _, v := range g.Variables() {
		desc.Variables = append(desc.Variables, describeVar(v))
	}
	for _, o := range g.Atts.All() {
		desc.Attributes = append(desc.Attributes, describeAttr(o.(*meta.Attribute)))
	}
	for _, child := range g.Groups() {
		desc.Groups = append(desc.Groups, describeGroup(f, child))
	}
	return desc
}

func describeType(t *meta.TypeInfo) TypeDesc {
	desc := TypeDesc{
		Name:  t.Name,
		ID:    t.ID,
		Class: t.Class.String(),
		Size:  t.SizeBytes,
	}
	switch t.Class {
	case meta.ClassEnum:
		desc.Base = t.Enum.BaseTypeID
		for _, m := range t.Members() {
			desc.Members = append(desc.Members, MemberDesc{Name: m.Name, Value: m.Value})
		}
	case meta.ClassVLen:
		desc.Base = t.VLen.BaseTypeID
	case meta.ClassCompound:
		for _, fld := range t.Fields() {
			desc.Fields = append(desc.Fields, FieldDesc{
				Name:   fld.Name,
				TypeID: fld.TypeID,
				Offset: fld.Offset,
				Shape:  fld.Shape,
			})
		}
	}
	return desc
}

func describeVar(v *meta.Variable) VarDesc {
	desc := VarDesc{
		Name:   v.Name,
		ID:     v.ID,
		TypeID: v.TypeID,
		DimIDs: v.DimIDs,
		Layout: LayoutDesc{
			Contiguous:   v.Layout.Contiguous,
			ChunkSizes:   v.Layout.ChunkSizes,
			Deflate:      v.Layout.Deflate,
			DeflateLevel: v.Layout.DeflateLevel,
			Shuffle:      v.Layout.Shuffle,
			Fletcher32:   v.Layout.Fletcher32,
			Endianness:   int(v.Layout.Endianness),
		},
		NoFill:    v.NoFill,
		FillValue: v.FillValue,
	}
	for _, o := range v.Atts.All() {
		desc.Attributes = append(desc.Attributes, describeAttr(o.(*meta.Attribute)))
	}
	return desc
}

func describeAttr(a *meta.Attribute) AttrDesc {
	return AttrDesc{
		Name:    a.Name,
		TypeID:  a.TypeID,
		Count:   a.Count,
		Bytes:   a.Bytes,
		Strings: a.Strings,
		Dirty:   a.Dirty,
	}
}

// DirtyAttributes lists the attributes still waiting to be flushed, as
// owner-path/attribute pairs in walk order. The flush collaborator uses
// this to write only what changed.
func DirtyAttributes(f *meta.File) []string {
	var out []string
	var walk func(g *meta.Group)
	walk = func(g *meta.Group) {
		for _, o := range g.Atts.All() {
			if a := o.(*meta.Attribute); a.Dirty {
				out = append(out, joinPath(g.FullPath(), "@"+a.Name))
			}
		}
		for _, v := range g.Variables() {
			for _, o := range v.Atts.All() {
				if a := o.(*meta.Attribute); a.Dirty {
					out = append(out, joinPath(g.FullPath(), v.Name+"/@"+a.Name))
				}
			}
		}
		for _, child := range g.Groups() {
			walk(child)
		}
	}
	walk(f.Root())
	return out
}

func joinPath(groupPath, rest string) string {
	if groupPath == meta.RootGroupName {
		return groupPath + rest
	}
	return groupPath + "/" + rest
}
