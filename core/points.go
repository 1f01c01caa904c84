package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/wcd-geometry/model"
)

// CirclePoints returns n points evenly spaced on the circle of the device's
// "size" property (a diameter), in the plane perpendicular to its z axis,
// expressed in the root frame. The first point lies along the device's x
// axis; later points advance counter-clockwise about z.
//
// The size is read from the property set of v. Survey and photogrammetry
// datasets carry no properties, so they use the design size.
func (d *Device) CirclePoints(n int, v model.Variant) ([]Vec3, error) {
	if n <= 0 {
		return nil, fmt.Errorf("CirclePoints: need at least one point, got %d", n)
	}
	propVariant := v
	if !v.HasProperties() {
		propVariant = model.VariantDesign
	}
	size, err := d.Property(propVariant, "size")
	if err != nil {
		return nil, err
	}

	frame, err := d.Resolve(v, nil)
	if err != nil {
		return nil, err
	}

	perp := frame.DirectionX.Scale(size / 2)
	step := AxisAngleRotation(2*math.Pi/float64(n), frame.DirectionZ)
	points := make([]Vec3, 0, n)
	for range n {
		points = append(points, frame.Location.Add(perp))
		perp = step.Apply(perp)
	}
	return points, nil
}

// TransformedPoints maps points given in the device's local frame (for
// example feature outlines or fiducial positions) into the frame of
// ancestor; a nil ancestor means the root.
func (d *Device) TransformedPoints(points []Vec3, v model.Variant, ancestor *Device) ([]Vec3, error) {
	if len(points) == 0 {
		return nil, errors.New("TransformedPoints: no points")
	}
	frame, err := d.Resolve(v, ancestor)
	if err != nil {
		return nil, err
	}
	out := make([]Vec3, len(points))
	for i, p := range points {
		out[i] = frame.ToAncestor(p)
	}
	return out, nil
}
