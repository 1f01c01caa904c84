package core

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/wcd-geometry/internal/logging"
	"github.com/signalsfoundry/wcd-geometry/kb"
	"github.com/signalsfoundry/wcd-geometry/model"
)

// MetricsRecorder receives construction and resolution events.
type MetricsRecorder interface {
	DeviceBuilt(deviceType, kind string)
	TreeBuilt(deviceType, kind string)
	FrameResolved(variant, result string, depth int)
}

type noopRecorder struct{}

func (noopRecorder) DeviceBuilt(string, string)        {}
func (noopRecorder) TreeBuilt(string, string)          {}
func (noopRecorder) FrameResolved(string, string, int) {}

// RootSpec describes the top device of a tree. Design and True are
// optional; a root's own placement is never needed to resolve frames inside
// its tree, but may be given when the root is itself a sub-assembly.
type RootSpec struct {
	Type   string
	Name   string
	Kind   string // defaults to the type's DefaultKind
	Design *model.Placement
	True   *model.Placement
}

// Builder constructs device trees from a catalog of device types.
type Builder struct {
	catalog *kb.Catalog
	sampler *Sampler
	log     logging.Logger
	metrics MetricsRecorder
}

// BuilderOption customises Builder construction.
type BuilderOption func(*Builder)

// WithSampler sets the random source used for true values.
func WithSampler(s *Sampler) BuilderOption {
	return func(b *Builder) {
		if s != nil {
			b.sampler = s
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMetricsRecorder attaches a recorder for construction and resolution
// events of every tree the builder produces.
func WithMetricsRecorder(m MetricsRecorder) BuilderOption {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// NewBuilder returns a builder reading device types from catalog.
func NewBuilder(catalog *kb.Catalog, opts ...BuilderOption) (*Builder, error) {
	if catalog == nil {
		return nil, errors.New("NewBuilder: catalog is nil")
	}
	b := &Builder{
		catalog: catalog,
		sampler: NewSampler(nil),
		log:     logging.Noop(),
		metrics: noopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build constructs a complete tree. The root samples its own properties
// first, then each child group is placed in table order, recursively.
func (b *Builder) Build(ctx context.Context, spec RootSpec) (*Device, error) {
	typ, err := b.catalog.Type(spec.Type)
	if err != nil {
		return nil, err
	}
	kind := spec.Kind
	if kind == "" {
		kind = typ.DefaultKind
	}

	log := logging.LoggerFromContext(ctx)
	if log == nil {
		log = b.log
	}
	ctx, log = logging.WithBuildLogger(ctx, log)
	ctx, span := startSpan(ctx, "wcd.build",
		attribute.String("device.type", typ.Name),
		attribute.String("device.kind", kind),
	)
	defer span.End()

	for _, p := range []*model.Placement{spec.Design, spec.True} {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			err = fmt.Errorf("%w: root placement: %v", ErrInvalidRotation, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	st := &buildState{
		log:  log,
		tree: &treeInfo{metrics: b.metrics},
	}
	root, err := b.construct(ctx, st, spec.Name, nil, typ, kind, clonePlacement(spec.Design), clonePlacement(spec.True))
	if err != nil {
		log.Warn(ctx, "device tree construction failed",
			logging.String("device_type", typ.Name),
			logging.String("kind", kind),
			logging.Err(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("device.count", st.count))
	b.metrics.TreeBuilt(typ.Name, kind)
	log.Info(ctx, "device tree built",
		logging.String("device_type", typ.Name),
		logging.String("kind", kind),
		logging.Int("devices", st.count),
	)
	return root, nil
}

type buildState struct {
	log   logging.Logger
	tree  *treeInfo
	count int
}

func (b *Builder) construct(ctx context.Context, st *buildState, name string, container *Device, typ *model.DeviceType, kind string, design, truth *model.Placement) (*Device, error) {
	d := &Device{
		typ:       typ,
		kind:      kind,
		container: container,
		tree:      st.tree,
		name:      name,
	}
	d.places[model.VariantDesign] = design
	d.places[model.VariantTrue] = truth

	if err := d.sampleProperties(b.sampler); err != nil {
		return nil, err
	}
	st.count++
	b.metrics.DeviceBuilt(typ.Name, kind)
	st.log.Debug(ctx, "device constructed",
		logging.String("device_type", typ.Name),
		logging.String("kind", kind),
		logging.String("name", name),
	)

	switch typ.Role() {
	case model.RoleLeaf:
	case model.RoleContainer:
		for _, g := range typ.Children {
			childType, err := b.catalog.Type(g.Type)
			if err != nil {
				return nil, err
			}
			children, err := b.placeDevices(ctx, st, d, childType, g.Layout[kind])
			if err != nil {
				return nil, fmt.Errorf("%s group %q: %w", d.label(), g.Name, err)
			}
			d.groups = append(d.groups, &Group{Name: g.Name, Type: g.Type, Devices: children})
		}
	default:
		return nil, fmt.Errorf("device type %s: unknown role %v", typ.Name, typ.Role())
	}
	return d, nil
}

// placeDevices builds one child per layout entry, in order. The design
// placement is the entry verbatim; the true placement perturbs every
// coordinate and angle independently with its declared normal noise.
func (b *Builder) placeDevices(ctx context.Context, st *buildState, parent *Device, childType *model.DeviceType, entries []model.LayoutEntry) ([]*Device, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	devices := make([]*Device, 0, len(entries))
	for i, e := range entries {
		design := e.DesignPlacement()
		truth, err := b.perturb(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		child, err := b.construct(ctx, st, e.Name, parent, childType, e.Kind, &design, &truth)
		if err != nil {
			return nil, err
		}
		devices = append(devices, child)
	}
	return devices, nil
}

func (b *Builder) perturb(e model.LayoutEntry) (model.Placement, error) {
	truth := model.Placement{
		RotationAxes:   e.RotationAxes,
		RotationAngles: make(model.Angles, len(e.RotationAngles)),
	}
	for i := range 3 {
		v, err := b.sampler.Sample(e.Location[i], e.LocationSigma[i], model.DistNormal)
		if err != nil {
			return model.Placement{}, err
		}
		truth.Location[i] = v
	}
	for i, angle := range e.RotationAngles {
		var sigma float64
		if i < len(e.RotationAnglesSigma) {
			sigma = e.RotationAnglesSigma[i]
		}
		v, err := b.sampler.Sample(angle, sigma, model.DistNormal)
		if err != nil {
			return model.Placement{}, err
		}
		truth.RotationAngles[i] = v
	}
	return truth, nil
}

func clonePlacement(p *model.Placement) *model.Placement {
	if p == nil {
		return nil
	}
	cp := p.Clone()
	return &cp
}
