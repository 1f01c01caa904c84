package kb

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/wcd-geometry/model"
)

var (
	// ErrTypeExists indicates a device type name was registered twice.
	ErrTypeExists = errors.New("device type already registered")
	// ErrTypeNotFound indicates a requested device type is not registered.
	ErrTypeNotFound = errors.New("device type not found")
	// ErrInvalidType indicates a device type failed validation.
	ErrInvalidType = errors.New("invalid device type")
)

// Catalog is an immutable registry of device types. It holds the static
// property distributions and child layouts the tree builder reads; once
// NewCatalog returns, nothing in it changes, so it can be shared freely.
type Catalog struct {
	types map[string]*model.DeviceType
	order []string
}

// NewCatalog validates and registers the given device types. The types are
// deep-copied, so later changes by the caller do not leak into the catalog.
func NewCatalog(types ...*model.DeviceType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*model.DeviceType, len(types))}
	for _, t := range types {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("%w: nil or unnamed type", ErrInvalidType)
		}
		if _, exists := c.types[t.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrTypeExists, t.Name)
		}
		cp := cloneType(t)
		if err := validateType(cp); err != nil {
			return nil, err
		}
		c.types[cp.Name] = cp
		c.order = append(c.order, cp.Name)
	}
	if err := c.validateReferences(); err != nil {
		return nil, err
	}
	return c, nil
}

// Type returns the device type registered under name. The result is shared
// and MUST be treated as read-only.
func (c *Catalog) Type(name string) (*model.DeviceType, error) {
	t, ok := c.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return t, nil
}

// Types returns the registered type names in registration order.
func (c *Catalog) Types() []string {
	return slices.Clone(c.order)
}

// Kinds returns the sorted set of kinds a type declares properties or
// layouts for.
func (c *Catalog) Kinds(typeName string) ([]string, error) {
	t, err := c.Type(typeName)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for kind := range t.Properties {
		set[kind] = struct{}{}
	}
	for _, g := range t.Children {
		for kind := range g.Layout {
			set[kind] = struct{}{}
		}
	}
	if t.DefaultKind != "" {
		set[t.DefaultKind] = struct{}{}
	}
	kinds := make([]string, 0, len(set))
	for kind := range set {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds, nil
}

type catalogYAML struct {
	Types []*model.DeviceType `yaml:"types"`
}

// LoadCatalog decodes a YAML document of the form
//
//	types:
//	  - name: PMT
//	    properties: {P3: {mean: {...}, scale: {...}}}
//	  - name: MPMT
//	    children:
//	      - {name: pmts, type: PMT, layout: {MR: [...]}}
//
// and returns the validated catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var payload catalogYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadCatalog: decode failed: %w", err)
	}
	return NewCatalog(payload.Types...)
}

func validateType(t *model.DeviceType) error {
	for kind, dist := range t.Properties {
		for attr, mean := range dist.Mean {
			scale, ok := dist.Scale[attr]
			if !ok {
				return fmt.Errorf("%w: %s kind %q: attribute %q has a mean but no scale", ErrInvalidType, t.Name, kind, attr)
			}
			if scale < 0 || math.IsNaN(scale) {
				return fmt.Errorf("%w: %s kind %q: attribute %q has scale %v", ErrInvalidType, t.Name, kind, attr, scale)
			}
			if dist.DistributionOf(attr) == model.DistGamma && scale > 0 && !(mean > 0) {
				return fmt.Errorf("%w: %s kind %q: gamma attribute %q needs a positive mean, got %v", ErrInvalidType, t.Name, kind, attr, mean)
			}
		}
		for attr := range dist.Scale {
			if _, ok := dist.Mean[attr]; !ok {
				return fmt.Errorf("%w: %s kind %q: attribute %q has a scale but no mean", ErrInvalidType, t.Name, kind, attr)
			}
		}
		for attr := range dist.Dist {
			if _, ok := dist.Mean[attr]; !ok {
				return fmt.Errorf("%w: %s kind %q: distribution declared for unknown attribute %q", ErrInvalidType, t.Name, kind, attr)
			}
		}
	}

	seen := make(map[string]struct{}, len(t.Children))
	for _, g := range t.Children {
		if g.Name == "" || g.Type == "" {
			return fmt.Errorf("%w: %s: child group needs a name and a type", ErrInvalidType, t.Name)
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate child group %q", ErrInvalidType, t.Name, g.Name)
		}
		seen[g.Name] = struct{}{}
		for kind, entries := range g.Layout {
			for i, e := range entries {
				if err := validateEntry(e); err != nil {
					return fmt.Errorf("%w: %s group %q kind %q entry %d: %v", ErrInvalidType, t.Name, g.Name, kind, i, err)
				}
			}
		}
	}
	return nil
}

func validateEntry(e model.LayoutEntry) error {
	if e.Kind == "" {
		return errors.New("missing kind")
	}
	if err := e.DesignPlacement().Validate(); err != nil {
		return err
	}
	if len(e.RotationAnglesSigma) != len(e.RotationAngles) {
		return fmt.Errorf("%d angles but %d angle sigmas", len(e.RotationAngles), len(e.RotationAnglesSigma))
	}
	for _, s := range e.LocationSigma {
		if s < 0 || math.IsNaN(s) {
			return fmt.Errorf("location sigma %v", s)
		}
	}
	for _, s := range e.RotationAnglesSigma {
		if s < 0 || math.IsNaN(s) {
			return fmt.Errorf("angle sigma %v", s)
		}
	}
	return nil
}

// validateReferences checks that every child group names a registered type
// and that following layouts from any (type, kind) never returns to itself,
// which would make construction recurse forever.
func (c *Catalog) validateReferences() error {
	for _, name := range c.order {
		for _, g := range c.types[name].Children {
			if _, ok := c.types[g.Type]; !ok {
				return fmt.Errorf("%w: %s group %q references %q", ErrTypeNotFound, name, g.Name, g.Type)
			}
		}
	}

	type node struct{ typ, kind string }
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[node]int)
	var visit func(n node) error
	visit = func(n node) error {
		switch state[n] {
		case active:
			return fmt.Errorf("%w: %s kind %q contains itself", ErrInvalidType, n.typ, n.kind)
		case done:
			return nil
		}
		state[n] = active
		for _, g := range c.types[n.typ].Children {
			for _, e := range g.Layout[n.kind] {
				if err := visit(node{typ: g.Type, kind: e.Kind}); err != nil {
					return err
				}
			}
		}
		state[n] = done
		return nil
	}
	for _, name := range c.order {
		for _, g := range c.types[name].Children {
			for kind := range g.Layout {
				if err := visit(node{typ: name, kind: kind}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func cloneType(t *model.DeviceType) *model.DeviceType {
	cp := &model.DeviceType{
		Name:        t.Name,
		DefaultKind: t.DefaultKind,
	}
	if t.Properties != nil {
		cp.Properties = make(map[string]model.PropertyDistribution, len(t.Properties))
		for kind, dist := range t.Properties {
			cp.Properties[kind] = model.PropertyDistribution{
				Mean:     maps.Clone(dist.Mean),
				Scale:    maps.Clone(dist.Scale),
				Dist:     maps.Clone(dist.Dist),
				Describe: maps.Clone(dist.Describe),
			}
		}
	}
	for _, g := range t.Children {
		layout := make(map[string][]model.LayoutEntry, len(g.Layout))
		for kind, entries := range g.Layout {
			out := make([]model.LayoutEntry, len(entries))
			for i, e := range entries {
				e.RotationAngles = e.RotationAngles.Clone()
				e.RotationAnglesSigma = e.RotationAnglesSigma.Clone()
				out[i] = e
			}
			layout[kind] = out
		}
		cp.Children = append(cp.Children, model.ChildGroup{Name: g.Name, Type: g.Type, Layout: layout})
	}
	return cp
}
