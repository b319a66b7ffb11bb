package meta

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// Mode is the define/data-mode state of a container. Structural mutations
// are legal only in Creating, Defining, and Redefining; data writes only in
// Data (and, for newly created variables, during define mode).
type Mode int

const (
	ModeCreating Mode = iota
	ModeDefining
	ModeData
	ModeRedefining
)

// String returns the lowercase name of the mode
func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeDefining:
		return "defining"
	case ModeData:
		return "data"
	case ModeRedefining:
		return "redefining"
	default:
		return "unknown"
	}
}

// File is the per-container registry: the single point of truth for
// identity allocation and cross-cutting invariants. It owns the root group,
// flat id tables spanning the whole hierarchy, the monotonic id counters,
// and the mode flags. All mutation entry points are methods on File.
//
// A File owns a fully private graph; it assumes exclusive access during any
// mutating call.
type File struct {
	instance uuid.UUID
	log      *zap.Logger

	root *Group

	// Flat id tables across every group, for O(1) id resolution
	// independent of tree depth. Counters only increase: ids are never
	// reused within one container's lifetime.
	groups map[int]*Group
	dims   map[int]*Dimension
	types  map[int]*TypeInfo

	nextGroupID int
	nextDimID   int
	nextTypeID  int

	mode    Mode
	redef   bool
	noWrite bool
	dirty   bool
}

// Option configures a File at creation time.
type Option func(*File)

// WithLogger attaches a logger; lifecycle transitions and structural
// mutations are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(f *File) { f.log = log }
}

// ReadOnly marks the container as opened without write intent; EndDefs and
// Redefine fail on a read-only container.
func ReadOnly() Option {
	return func(f *File) { f.noWrite = true }
}

// CreateFile creates an empty container in Creating mode with a fresh root
// group (id 0).
func CreateFile(opts ...Option) *File {
	f := &File{
		instance:   uuid.New(),
		log:        zap.NewNop(),
		groups:     make(map[int]*Group),
		dims:       make(map[int]*Dimension),
		types:      make(map[int]*TypeInfo),
		nextTypeID: FirstUserTypeID,
		mode:       ModeCreating,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.root = newGroup(f, nil, RootGroupName, f.nextGroupID)
	f.nextGroupID++
	f.groups[f.root.ID] = f.root
	f.log.Debug("container created",
		zap.String("instance", f.instance.String()))
	return f
}

// Root returns the root group.
func (f *File) Root() *Group {
	return f.root
}

// Mode returns the current lifecycle mode.
func (f *File) Mode() Mode {
	return f.mode
}

// Redefining reports whether the container is redefining an existing,
// already-persisted container.
func (f *File) Redefining() bool {
	return f.redef
}

// Dirty reports whether structural changes are pending for the flush
// collaborator.
func (f *File) Dirty() bool {
	return f.dirty
}

// Instance returns the container's instance id, used for log correlation.
func (f *File) Instance() string {
	return f.instance.String()
}

// enterDefine gates a structural mutation on the mode state machine. The
// first structural declaration moves Creating to Defining.
func (f *File) enterDefine() error {
	switch f.mode {
	case ModeCreating:
		f.mode = ModeDefining
		f.log.Debug("mode transition",
			zap.String("instance", f.instance.String()),
			zap.String("from", ModeCreating.String()),
			zap.String("to", ModeDefining.String()))
		return nil
	case ModeDefining, ModeRedefining:
		return nil
	default:
		return ncerr.Newf(ncerr.InvalidModeForOperation,
			"structural mutation illegal in %s mode", f.mode)
	}
}

// EndDefs validates all pending structural invariants and moves the
// container to Data mode. On any validation failure the whole transition
// fails and the mode is left unchanged.
func (f *File) EndDefs() error {
	switch f.mode {
	case ModeCreating, ModeDefining, ModeRedefining:
	default:
		return ncerr.Newf(ncerr.InvalidModeForOperation,
			"end definitions illegal in %s mode", f.mode)
	}
	if f.noWrite {
		return ncerr.New(ncerr.InvalidModeForOperation,
			"container is read-only")
	}

	if err := f.validateDefs(); err != nil {
		f.log.Warn("end definitions rejected",
			zap.String("instance", f.instance.String()),
			zap.Error(err))
		return err
	}

	// Referenced user types become committed and immutable.
	for _, t := range f.types {
		if t.RefCount() > 0 {
			t.Committed = true
		}
	}

	from := f.mode
	f.mode = ModeData
	f.redef = false
	f.log.Debug("mode transition",
		zap.String("instance", f.instance.String()),
		zap.String("from", from.String()),
		zap.String("to", ModeData.String()))
	return nil
}

// validateDefs checks the invariants EndDefs enforces: every referenced
// user type fully defined, every variable's dimension list resolvable from
// its own scope.
func (f *File) validateDefs() error {
	for _, t := range f.types {
		if t.RefCount() > 0 && !t.fullyDefined() {
			return ncerr.Newf(ncerr.InvalidArgument,
				"%s type is referenced but has no members", t.Class).
				WithObject("type", t.Name)
		}
	}
	for _, g := range f.groups {
		for _, v := range g.Variables() {
			if _, ok := f.TypeByID(v.TypeID); !ok {
				return ncerr.Newf(ncerr.NotFound, "variable type %d not found", v.TypeID).
					WithObject("variable", v.Name)
			}
			for _, dimID := range v.DimIDs {
				d, ok := f.DimensionByID(dimID)
				if !ok {
					return ncerr.Newf(ncerr.NotFound, "dimension %d not found", dimID).
						WithObject("variable", v.Name)
				}
				if !visibleFrom(d.Group, g) {
					return ncerr.Newf(ncerr.ScopeViolation,
						"dimension %q not visible from group %q", d.Name, g.FullPath()).
						WithObject("variable", v.Name)
				}
			}
		}
	}
	return nil
}

// Redefine re-enters define mode against an existing, already-persisted
// container.
func (f *File) Redefine() error {
	if f.noWrite {
		return ncerr.New(ncerr.InvalidModeForOperation,
			"container is read-only")
	}
	if f.mode != ModeData {
		return ncerr.Newf(ncerr.InvalidModeForOperation,
			"redefine illegal in %s mode", f.mode)
	}
	f.mode = ModeRedefining
	f.redef = true
	f.log.Debug("mode transition",
		zap.String("instance", f.instance.String()),
		zap.String("from", ModeData.String()),
		zap.String("to", ModeRedefining.String()))
	return nil
}

// MarkDataWrite records a data write to v. Legal in Data mode; during
// define mode only for variables not yet committed to the backend.
func (f *File) MarkDataWrite(v *Variable) error {
	switch f.mode {
	case ModeData:
	case ModeCreating, ModeDefining, ModeRedefining:
		if !v.IsNew {
			return ncerr.Newf(ncerr.InvalidModeForOperation,
				"data write to existing variable illegal in %s mode", f.mode).
				WithObject("variable", v.Name)
		}
	}
	if f.noWrite {
		return ncerr.New(ncerr.InvalidModeForOperation,
			"container is read-only").
			WithObject("variable", v.Name)
	}
	v.WrittenTo = true
	return nil
}

// MarkFlushed clears the dirty bookkeeping after the backend persisted the
// pending changes: attributes and variables become created and clean,
// extended dimensions become settled.
func (f *File) MarkFlushed() {
	for _, g := range f.groups {
		for _, o := range g.Atts.All() {
			a := o.(*Attribute)
			a.Dirty = false
			a.Created = true
		}
		for _, v := range g.Variables() {
			v.IsNew = false
			v.Created = true
			v.AttrDirty = false
			v.FillValueChanged = false
			for _, o := range v.Atts.All() {
				a := o.(*Attribute)
				a.Dirty = false
				a.Created = true
			}
		}
		for _, d := range g.Dimensions() {
			d.Extended = false
		}
	}
	f.dirty = false
}

// MarkOpened finishes assembly of a graph loaded from a backend: every
// object is considered created and clean, and the container enters Data
// mode. Intended for persistence backends, not general callers.
func (f *File) MarkOpened() {
	f.MarkFlushed()
	f.mode = ModeData
	f.redef = false
	f.log.Debug("container opened",
		zap.String("instance", f.instance.String()),
		zap.Int("groups", len(f.groups)),
		zap.Int("dimensions", len(f.dims)),
		zap.Int("types", len(f.types)))
}
