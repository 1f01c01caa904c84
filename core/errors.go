package core

import "errors"

var (
	// ErrNotContained indicates the queried device is not inside the
	// requested ancestor frame.
	ErrNotContained = errors.New("device not contained in specified frame")
	// ErrMissingPlacement indicates a device on the resolution path has no
	// placement record for the requested variant.
	ErrMissingPlacement = errors.New("missing placement data")
	// ErrInvalidDistribution indicates a sampling precondition was violated,
	// e.g. a gamma draw with a non-positive mean.
	ErrInvalidDistribution = errors.New("invalid distribution parameters")
	// ErrInvalidRotation indicates a malformed axis sequence or angle list.
	ErrInvalidRotation = errors.New("invalid rotation")
	// ErrUnknownVariant indicates a variant that does not exist or carries
	// no dataset of the requested sort.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrImmutableVariant indicates an attempt to overwrite design or true
	// placements after construction.
	ErrImmutableVariant = errors.New("variant is immutable after construction")
	// ErrMissingProperty indicates a required property is absent.
	ErrMissingProperty = errors.New("missing property")
)

// resultLabel classifies an error for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotContained):
		return "not_contained"
	case errors.Is(err, ErrMissingPlacement):
		return "missing_placement"
	case errors.Is(err, ErrInvalidRotation):
		return "invalid_rotation"
	default:
		return "error"
	}
}
