package core

import (
	"fmt"

	"github.com/signalsfoundry/wcd-geometry/model"
)

// probeLength is the distance along each axis at which auxiliary points are
// placed when carrying directions through a container's rotation.
const probeLength = 100.0

// Frame is a device's origin and axis directions expressed in some
// ancestor's coordinate system.
type Frame struct {
	Location   Vec3
	DirectionX Vec3
	DirectionZ Vec3
}

// IdentityFrame is a device's own frame.
func IdentityFrame() Frame {
	return Frame{DirectionX: UnitX, DirectionZ: UnitZ}
}

// DirectionY completes the right-handed axis triad.
func (f Frame) DirectionY() Vec3 {
	return f.DirectionZ.Cross(f.DirectionX)
}

// ToAncestor maps a point given in the device's local frame into the frame
// f is expressed in.
func (f Frame) ToAncestor(local Vec3) Vec3 {
	return f.Location.
		Add(f.DirectionX.Scale(local.X)).
		Add(f.DirectionY().Scale(local.Y)).
		Add(f.DirectionZ.Scale(local.Z))
}

// Resolve returns the location and x/z axis directions of d in the frame of
// ancestor, using the placement dataset selected by v. A nil ancestor means
// the root of d's tree.
//
// A root device, or d == ancestor, is at the identity frame. Otherwise d's
// own placement is applied to the canonical axes and the result is carried
// up one container at a time, rotating by the container's rotation and then
// translating by its location, until ancestor is reached.
func (d *Device) Resolve(v model.Variant, ancestor *Device) (frame Frame, err error) {
	depth := 0
	defer func() {
		d.recorder().FrameResolved(v.String(), resultLabel(err), depth)
	}()

	if !v.Valid() {
		return Frame{}, fmt.Errorf("%w: %v", ErrUnknownVariant, v)
	}
	if ancestor == nil {
		ancestor = d.Root()
	}
	if d.container != nil && !d.Contains(ancestor) {
		return Frame{}, fmt.Errorf("%w: device %s is not in the specified container %s", ErrNotContained, d.label(), ancestor.label())
	}
	if d.container == nil || d == ancestor {
		return IdentityFrame(), nil
	}

	place, err := d.placementFor(v)
	if err != nil {
		return Frame{}, err
	}
	rot, err := PlacementRotation(place)
	if err != nil {
		return Frame{}, fmt.Errorf("device %s: %w", d.label(), err)
	}
	frame = Frame{
		Location:   VecFromArray(place.Location),
		DirectionX: rot.Apply(UnitX),
		DirectionZ: rot.Apply(UnitZ),
	}

	for c := d.container; c != ancestor; c = c.container {
		depth++
		cp, err := c.placementFor(v)
		if err != nil {
			return Frame{}, err
		}
		frame, err = frame.throughContainer(cp)
		if err != nil {
			return Frame{}, fmt.Errorf("device %s: %w", c.label(), err)
		}
	}
	return frame, nil
}

// throughContainer re-expresses f, given in a container's frame, in the
// frame one level further out, using the container's placement there.
func (f Frame) throughContainer(p model.Placement) (Frame, error) {
	head := f.Location
	tailX := head.Add(f.DirectionX.Scale(probeLength))
	tailZ := head.Add(f.DirectionZ.Scale(probeLength))

	// an empty axis sequence is the identity
	rot, err := PlacementRotation(p)
	if err != nil {
		return Frame{}, err
	}
	head, tailX, tailZ = rot.Apply(head), rot.Apply(tailX), rot.Apply(tailZ)

	return Frame{
		Location:   head.Add(VecFromArray(p.Location)),
		DirectionX: tailX.Sub(head).Unit(),
		DirectionZ: tailZ.Sub(head).Unit(),
	}, nil
}
