package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxRotationAxes bounds the length of an Euler axis sequence.
const MaxRotationAxes = 3

// Angles is a sequence of rotation angles in radians. In YAML a single
// angle may be written as a bare scalar, which is how single-axis
// rotations are usually declared.
type Angles []float64

// UnmarshalYAML accepts either a scalar or a sequence of numbers.
func (a *Angles) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("angle: %w", err)
		}
		*a = Angles{v}
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return fmt.Errorf("angles: %w", err)
		}
		*a = Angles(vs)
	default:
		return fmt.Errorf("angles: line %d: expected a number or a sequence of numbers", node.Line)
	}
	return nil
}

// Clone returns an independent copy of a.
func (a Angles) Clone() Angles {
	if a == nil {
		return nil
	}
	out := make(Angles, len(a))
	copy(out, a)
	return out
}

// Placement is a rigid placement of a device inside its container:
// a rotation given as an Euler axis sequence plus angles, followed by a
// translation. An empty axis sequence is the identity rotation.
type Placement struct {
	Location       [3]float64 `yaml:"loc"`
	RotationAxes   string     `yaml:"rot_axes"`
	RotationAngles Angles     `yaml:"rot_angles"`
}

// Clone returns a deep copy of p.
func (p Placement) Clone() Placement {
	p.RotationAngles = p.RotationAngles.Clone()
	return p
}

// Validate checks the axis sequence and that there is one angle per axis.
func (p Placement) Validate() error {
	if err := ValidateAxes(p.RotationAxes); err != nil {
		return err
	}
	if len(p.RotationAngles) != len(p.RotationAxes) {
		return fmt.Errorf("rotation %q needs %d angles, got %d", p.RotationAxes, len(p.RotationAxes), len(p.RotationAngles))
	}
	return nil
}

// ValidateAxes checks an Euler axis sequence: at most three letters from
// {X,Y,Z} (intrinsic, body-frame rotations) or {x,y,z} (extrinsic,
// fixed-frame rotations), without mixing the two cases.
func ValidateAxes(axes string) error {
	if len(axes) > MaxRotationAxes {
		return fmt.Errorf("rotation axes %q: at most %d axes allowed", axes, MaxRotationAxes)
	}
	if axes == "" {
		return nil
	}
	switch {
	case strings.Trim(axes, "XYZ") == "":
	case strings.Trim(axes, "xyz") == "":
	default:
		return fmt.Errorf("rotation axes %q: use only X, Y, Z or only x, y, z", axes)
	}
	return nil
}

// Intrinsic reports whether the axis sequence denotes body-frame rotations.
func Intrinsic(axes string) bool {
	return axes != "" && axes[0] >= 'A' && axes[0] <= 'Z'
}
