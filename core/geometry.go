package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/wcd-geometry/model"
)

// Vec3 is a point or direction in a device frame, in millimetres.
type Vec3 struct {
	X, Y, Z float64
}

// Canonical unit vectors of a device frame.
var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// VecFromArray converts a layout triple into a Vec3.
func VecFromArray(a [3]float64) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Array returns v as a layout triple.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns f·v.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: f * v.X, Y: f * v.Y, Z: f * v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return fromR3(r3.Cross(v.r3(), other.r3()))
}

// Unit returns v scaled to unit length. The zero vector is returned as is.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func (v Vec3) r3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func fromR3(p r3.Vec) Vec3 { return Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// Rotation is a proper rotation stored as a unit quaternion. The zero value
// is not valid; use IdentityRotation.
type Rotation struct {
	q quat.Number
}

// IdentityRotation returns the rotation that leaves every vector unchanged.
func IdentityRotation() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// AxisAngleRotation returns the right-handed rotation by angle radians about
// axis. The axis need not be normalised.
func AxisAngleRotation(angle float64, axis Vec3) Rotation {
	return Rotation{q: quat.Number(r3.NewRotation(angle, axis.r3()))}
}

// NewEulerRotation builds the rotation described by an Euler axis sequence.
// Upper-case letters rotate about the body axes as they move (intrinsic),
// lower-case letters about the fixed axes (extrinsic). With angles a, b, c:
//
//	"XYZ" → Rx(a)·Ry(b)·Rz(c)
//	"xyz" → Rz(c)·Ry(b)·Rx(a)
//
// An empty sequence is the identity.
func NewEulerRotation(axes string, angles []float64) (Rotation, error) {
	if err := model.ValidateAxes(axes); err != nil {
		return Rotation{}, fmt.Errorf("%w: %v", ErrInvalidRotation, err)
	}
	if len(angles) != len(axes) {
		return Rotation{}, fmt.Errorf("%w: axes %q need %d angles, got %d", ErrInvalidRotation, axes, len(axes), len(angles))
	}

	rot := IdentityRotation()
	intrinsic := model.Intrinsic(axes)
	for i := 0; i < len(axes); i++ {
		step := quat.Number(r3.NewRotation(angles[i], basisAxis(axes[i])))
		if intrinsic {
			rot.q = quat.Mul(rot.q, step)
		} else {
			rot.q = quat.Mul(step, rot.q)
		}
	}
	return rot, nil
}

// PlacementRotation returns the rotation part of a placement record.
func PlacementRotation(p model.Placement) (Rotation, error) {
	return NewEulerRotation(p.RotationAxes, p.RotationAngles)
}

// Apply rotates v.
func (r Rotation) Apply(v Vec3) Vec3 {
	return fromR3(r3.Rotation(r.q).Rotate(v.r3()))
}

// Then returns the rotation that applies r first and next second.
func (r Rotation) Then(next Rotation) Rotation {
	return Rotation{q: quat.Mul(next.q, r.q)}
}

func basisAxis(c byte) r3.Vec {
	switch c {
	case 'X', 'x':
		return r3.Vec{X: 1}
	case 'Y', 'y':
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}
