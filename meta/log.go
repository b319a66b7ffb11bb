package meta

import "go.uber.org/zap"

// LogMetadata dumps the whole metadata graph to the file's logger at debug
// level, one entry per object. Handy when chasing bookkeeping bugs; a nop
// logger makes this free.
func (f *File) LogMetadata() {
	if f.root == nil {
		f.log.Debug("container has no root group",
			zap.String("instance", f.instance.String()))
		return
	}
	f.log.Debug("metadata dump",
		zap.String("instance", f.instance.String()),
		zap.String("mode", f.mode.String()),
		zap.Bool("dirty", f.dirty))
	walkGroups(f.root, func(g *Group) {
		log := f.log.With(zap.String("group", g.FullPath()))
		log.Debug("group", zap.Int("id", g.ID))
		for _, d := range g.Dimensions() {
			log.Debug("dimension",
				zap.String("name", d.Name),
				zap.Int("id", d.ID),
				zap.Uint64("len", d.Len),
				zap.Bool("unlimited", d.Unlimited),
				zap.Bool("coord", d.HasCoordVar()))
		}
		for _, t := range g.UserTypes() {
			log.Debug("type",
				zap.String("name", t.Name),
				zap.Int("id", t.ID),
				zap.String("class", t.Class.String()),
				zap.Uint64("size", t.SizeBytes),
				zap.Int("refcount", t.RefCount()),
				zap.Bool("committed", t.Committed))
		}
		for _, v := range g.Variables() {
			log.Debug("variable",
				zap.String("name", v.Name),
				zap.Int("id", v.ID),
				zap.Int("type", v.TypeID),
				zap.Ints("dims", v.DimIDs),
				zap.Bool("dirtyAttrs", v.AttrDirty),
				zap.Bool("written", v.WrittenTo))
		}
		for _, a := range g.Attributes() {
			log.Debug("attribute",
				zap.String("name", a.Name),
				zap.Int("type", a.TypeID),
				zap.Int("count", a.Count),
				zap.Bool("dirty", a.Dirty))
		}
	})
}
