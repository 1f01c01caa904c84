package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DistributionKind names the distribution used to draw a true value from
// a (mean, scale) pair.
type DistributionKind int

const (
	DistNormal  DistributionKind = iota // scale is the standard deviation
	DistUniform                         // scale is the half-width
	DistGamma                           // scale is the standard deviation; strictly positive support
)

func (k DistributionKind) String() string {
	switch k {
	case DistNormal:
		return "normal"
	case DistUniform:
		return "uniform"
	case DistGamma:
		return "gamma"
	default:
		return fmt.Sprintf("DistributionKind(%d)", int(k))
	}
}

// ParseDistributionKind maps a name to its DistributionKind. The empty
// string selects the normal distribution.
func ParseDistributionKind(s string) (DistributionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "norm", "normal":
		return DistNormal, nil
	case "uniform":
		return DistUniform, nil
	case "gamma":
		return DistGamma, nil
	default:
		return 0, fmt.Errorf("unknown distribution %q", s)
	}
}

// UnmarshalYAML decodes a distribution name.
func (k *DistributionKind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDistributionKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = parsed
	return nil
}

// PropertyDistribution declares the physical attributes of one kind of
// device. Mean and Scale share the same keys; Dist lists attributes that
// are not normally distributed.
type PropertyDistribution struct {
	Mean     map[string]float64          `yaml:"mean"`
	Scale    map[string]float64          `yaml:"scale"`
	Dist     map[string]DistributionKind `yaml:"dist,omitempty"`
	Describe map[string]string           `yaml:"describe,omitempty"`
}

// DistributionOf returns the distribution declared for attr.
func (p PropertyDistribution) DistributionOf(attr string) DistributionKind {
	if k, ok := p.Dist[attr]; ok {
		return k
	}
	return DistNormal
}

// LayoutEntry declares one child device: its kind, nominal placement and
// the per-coordinate and per-angle noise used to sample the true placement.
type LayoutEntry struct {
	Name                string     `yaml:"name,omitempty"`
	Kind                string     `yaml:"kind"`
	Location            [3]float64 `yaml:"loc"`
	LocationSigma       [3]float64 `yaml:"loc_sig"`
	RotationAxes        string     `yaml:"rot_axes"`
	RotationAngles      Angles     `yaml:"rot_angles"`
	RotationAnglesSigma Angles     `yaml:"rot_angles_sig"`
}

// DesignPlacement returns the nominal placement of the entry.
func (e LayoutEntry) DesignPlacement() Placement {
	return Placement{
		Location:       e.Location,
		RotationAxes:   e.RotationAxes,
		RotationAngles: e.RotationAngles.Clone(),
	}
}

// ChildGroup declares a named set of children of one device type, laid
// out per kind of the parent.
type ChildGroup struct {
	Name   string                   `yaml:"name"`
	Type   string                   `yaml:"type"`
	Layout map[string][]LayoutEntry `yaml:"layout"`
}

// DeviceType is the static description of a device class: the property
// distributions of each of its kinds and the groups of children it places.
type DeviceType struct {
	Name        string                          `yaml:"name"`
	DefaultKind string                          `yaml:"default_kind,omitempty"`
	Properties  map[string]PropertyDistribution `yaml:"properties,omitempty"`
	Children    []ChildGroup                    `yaml:"children,omitempty"`
}

// Role reports whether devices of this type place children.
func (t *DeviceType) Role() Role {
	if len(t.Children) == 0 {
		return RoleLeaf
	}
	return RoleContainer
}
