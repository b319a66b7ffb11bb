package meta

// Group is a named scope in the container hierarchy, analogous to a
// directory. Groups form a rooted tree: the tree is the sole ownership
// structure, every non-group entity is owned by exactly one group. Groups,
// dimensions, variables, attributes, and types occupy separate namespaces
// within a group, so a variable and a dimension may share a name (the
// coordinate-variable convention).
type Group struct {
	Header
	File   *File
	Parent *Group

	Children *Index // *Group
	Dims     *Index // *Dimension
	Atts     *Index // *Attribute
	Vars     *Index // *Variable
	Types    *Index // *TypeInfo
}

func newGroup(f *File, parent *Group, name string, id int) *Group {
	return &Group{
		Header:   NewHeader(KindGroup, name, id),
		File:     f,
		Parent:   parent,
		Children: NewIndex(),
		Dims:     NewIndex(),
		Atts:     NewIndex(),
		Vars:     NewIndex(),
		Types:    NewIndex(),
	}
}

// IsRoot reports whether g is the root group.
func (g *Group) IsRoot() bool {
	return g.Parent == nil
}

// FullPath returns the absolute path of the group, "/" for the root.
func (g *Group) FullPath() string {
	if g.IsRoot() {
		return RootGroupName
	}
	parent := g.Parent.FullPath()
	if parent == RootGroupName {
		return parent + g.Name
	}
	return parent + "/" + g.Name
}

// Variables returns the group's variables in declaration order.
func (g *Group) Variables() []*Variable {
	objs := g.Vars.All()
	vars := make([]*Variable, len(objs))
	for i, o := range objs {
		vars[i] = o.(*Variable)
	}
	return vars
}

// Dimensions returns the group's dimensions in declaration order.
func (g *Group) Dimensions() []*Dimension {
	objs := g.Dims.All()
	dims := make([]*Dimension, len(objs))
	for i, o := range objs {
		dims[i] = o.(*Dimension)
	}
	return dims
}

// Groups returns the child groups in declaration order.
func (g *Group) Groups() []*Group {
	objs := g.Children.All()
	groups := make([]*Group, len(objs))
	for i, o := range objs {
		groups[i] = o.(*Group)
	}
	return groups
}

// UserTypes returns the types defined in this group in declaration order.
func (g *Group) UserTypes() []*TypeInfo {
	objs := g.Types.All()
	types := make([]*TypeInfo, len(objs))
	for i, o := range objs {
		types[i] = o.(*TypeInfo)
	}
	return types
}

// Attributes returns the group attributes in declaration order, skipping
// reserved hidden ones.
func (g *Group) Attributes() []*Attribute {
	return visibleAttrs(g.Atts)
}

// AttributesOf returns a variable's attributes in declaration order,
// skipping reserved hidden ones.
func AttributesOf(v *Variable) []*Attribute {
	return visibleAttrs(v.Atts)
}

func visibleAttrs(idx *Index) []*Attribute {
	objs := idx.All()
	atts := make([]*Attribute, 0, len(objs))
	for _, o := range objs {
		a := o.(*Attribute)
		if a.Hidden() {
			continue
		}
		atts = append(atts, a)
	}
	return atts
}
