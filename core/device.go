package core

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/signalsfoundry/wcd-geometry/model"
)

// Group is an ordered set of children of one device type, e.g. the PMTs of
// a multi-PMT module. Order follows the layout table the children were
// built from, so positional indexes are stable.
type Group struct {
	Name    string
	Type    string
	Devices []*Device
}

// Device is a node of a detector tree. It owns its children; the link to
// its container is a non-owning back-reference used only to walk towards
// the root.
//
// Design and true data are fixed once construction finishes, so Resolve
// may be called concurrently. Estimate datasets, survey and photogrammetry
// placements and SetProperty are guarded by the device's lock.
type Device struct {
	typ       *model.DeviceType
	kind      string
	container *Device
	groups    []*Group
	tree      *treeInfo

	mu     sync.RWMutex
	name   string
	props  [model.NumVariants]map[string]float64
	places [model.NumVariants]*model.Placement
}

// treeInfo is shared by every device of one tree.
type treeInfo struct {
	metrics MetricsRecorder
}

func (d *Device) recorder() MetricsRecorder {
	if d.tree == nil || d.tree.metrics == nil {
		return noopRecorder{}
	}
	return d.tree.metrics
}

// Name returns the device name. Names are not required to be unique.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// Rename replaces the device name.
func (d *Device) Rename(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// Type returns the name of the device type.
func (d *Device) Type() string { return d.typ.Name }

// Kind returns the kind the device was built from.
func (d *Device) Kind() string { return d.kind }

// Role reports whether the device is a leaf or a container.
func (d *Device) Role() model.Role { return d.typ.Role() }

// Container returns the device's container, or nil at the root.
func (d *Device) Container() *Device { return d.container }

// Root returns the top of the device's tree.
func (d *Device) Root() *Device {
	root := d
	for root.container != nil {
		root = root.container
	}
	return root
}

// Groups returns the device's child groups in declaration order.
func (d *Device) Groups() []*Group {
	out := make([]*Group, len(d.groups))
	copy(out, d.groups)
	return out
}

// Children returns the children in the named group, or nil.
func (d *Device) Children(group string) []*Device {
	for _, g := range d.groups {
		if g.Name == group {
			out := make([]*Device, len(g.Devices))
			copy(out, g.Devices)
			return out
		}
	}
	return nil
}

// Contains reports whether ancestor lies on d's container chain, counting d
// itself.
func (d *Device) Contains(ancestor *Device) bool {
	for c := d; c != nil; c = c.container {
		if c == ancestor {
			return true
		}
	}
	return false
}

// Walk calls fn for d and every descendant in pre-order, stopping at the
// first error.
func (d *Device) Walk(fn func(*Device) error) error {
	if err := fn(d); err != nil {
		return err
	}
	switch d.Role() {
	case model.RoleLeaf:
		return nil
	case model.RoleContainer:
		for _, g := range d.groups {
			for _, child := range g.Devices {
				if err := child.Walk(fn); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("device %s: unknown role %v", d.label(), d.Role())
	}
}

// Collect returns every descendant of d (not d itself) whose type is
// typeName, in pre-order.
func (d *Device) Collect(typeName string) []*Device {
	var out []*Device
	_ = d.Walk(func(dev *Device) error {
		if dev != d && dev.typ.Name == typeName {
			out = append(out, dev)
		}
		return nil
	})
	return out
}

// Renumber names devices by their position in the slice ("0", "1", ...),
// giving devices collected from several containers unique names.
func Renumber(devices []*Device) {
	for i, dev := range devices {
		dev.Rename(strconv.Itoa(i))
	}
}

// Properties returns a copy of the property set for v. Survey and
// photogrammetry carry placements only and yield ErrUnknownVariant.
func (d *Device) Properties(v model.Variant) (map[string]float64, error) {
	if !v.HasProperties() {
		return nil, fmt.Errorf("%w: %s has no property dataset", ErrUnknownVariant, v)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := maps.Clone(d.props[v])
	if out == nil {
		out = map[string]float64{}
	}
	return out, nil
}

// Property returns a single property value.
func (d *Device) Property(v model.Variant, name string) (float64, error) {
	if !v.HasProperties() {
		return 0, fmt.Errorf("%w: %s has no property dataset", ErrUnknownVariant, v)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	val, ok := d.props[v][name]
	if !ok {
		return 0, fmt.Errorf("%w: device %s has no %s property %q", ErrMissingProperty, d.labelLocked(), v, name)
	}
	return val, nil
}

// PropertyNames returns the sorted attribute names of the design set.
func (d *Device) PropertyNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.props[model.VariantDesign]))
}

// Describe returns the description the device type gives for a property.
func (d *Device) Describe(name string) string {
	return d.typ.Properties[d.kind].Describe[name]
}

// SetProperty overwrites a true property, for calibration values that are
// only known after construction.
func (d *Device) SetProperty(name string, value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.props[model.VariantTrue] == nil {
		d.props[model.VariantTrue] = make(map[string]float64)
	}
	d.props[model.VariantTrue][name] = value
}

// SetEstimate records the current estimate of a property and its standard
// deviation.
func (d *Device) SetEstimate(name string, value, sigma float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for v, val := range map[model.Variant]float64{model.VariantEstimate: value, model.VariantEstimateSigma: sigma} {
		if d.props[v] == nil {
			d.props[v] = make(map[string]float64)
		}
		d.props[v][name] = val
	}
}

// Placement returns a copy of the placement record for v and whether one
// was ever populated.
func (d *Device) Placement(v model.Variant) (model.Placement, bool) {
	if !v.Valid() {
		return model.Placement{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	p := d.places[v]
	if p == nil {
		return model.Placement{}, false
	}
	return p.Clone(), true
}

// SetPlacement records an observed or estimated placement. Design and true
// placements are fixed at construction and yield ErrImmutableVariant.
func (d *Device) SetPlacement(v model.Variant, p model.Placement) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownVariant, v)
	}
	if !v.Mutable() {
		return fmt.Errorf("%w: %s placement of %s", ErrImmutableVariant, v, d.label())
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRotation, err)
	}
	cp := p.Clone()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.places[v] = &cp
	return nil
}

// placementFor returns the record for v or ErrMissingPlacement.
func (d *Device) placementFor(v model.Variant) (model.Placement, error) {
	p, ok := d.Placement(v)
	if !ok {
		return model.Placement{}, fmt.Errorf("%w: device %s has no %s placement", ErrMissingPlacement, d.label(), v)
	}
	return p, nil
}

// sampleProperties records the design values of the device's kind and
// draws the true values from the declared distributions. Kinds without a
// table leave both sets empty.
func (d *Device) sampleProperties(s *Sampler) error {
	dist, ok := d.typ.Properties[d.kind]
	if !ok {
		return nil
	}
	design := maps.Clone(dist.Mean)
	truth := make(map[string]float64, len(dist.Mean))
	// sorted so a seeded sampler reproduces the same tree
	attrs := slices.Sorted(maps.Keys(dist.Mean))
	for _, attr := range attrs {
		mean := dist.Mean[attr]
		val, err := s.Sample(mean, dist.Scale[attr], dist.DistributionOf(attr))
		if err != nil {
			return fmt.Errorf("device %s property %q: %w", d.label(), attr, err)
		}
		truth[attr] = val
	}
	d.props[model.VariantDesign] = design
	d.props[model.VariantTrue] = truth
	return nil
}

func (d *Device) label() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.labelLocked()
}

func (d *Device) labelLocked() string {
	return fmt.Sprintf("%s %q", d.typ.Name, d.name)
}

func (d *Device) String() string { return d.label() }
