package model

import (
	"fmt"
	"strings"
)

// Variant selects one of the parallel datasets a device carries: the
// intended values, the simulated as-built values, external measurements,
// or the current estimates.
type Variant int

const (
	VariantDesign        Variant = iota // intended, noise-free values
	VariantTrue                         // as-built values sampled at construction
	VariantSurvey                       // placement measured by survey
	VariantPhoto                        // placement measured by photogrammetry
	VariantEstimate                     // current estimates
	VariantEstimateSigma                // standard deviation of the estimates
)

// NumVariants is the number of defined variants; it sizes per-variant arrays.
const NumVariants = 6

var variantNames = [NumVariants]string{"design", "true", "survey", "photo", "est", "est_sig"}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	return []Variant{VariantDesign, VariantTrue, VariantSurvey, VariantPhoto, VariantEstimate, VariantEstimateSigma}
}

// Valid reports whether v is one of the declared variants.
func (v Variant) Valid() bool {
	return v >= VariantDesign && v <= VariantEstimateSigma
}

// HasProperties reports whether devices keep a property set for v. Survey
// and photogrammetry only ever observe placements.
func (v Variant) HasProperties() bool {
	switch v {
	case VariantDesign, VariantTrue, VariantEstimate, VariantEstimateSigma:
		return true
	default:
		return false
	}
}

// Mutable reports whether the dataset may change after construction.
func (v Variant) Mutable() bool {
	return v.Valid() && v != VariantDesign && v != VariantTrue
}

func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant maps a dataset name ("design", "true", "survey", "photo",
// "est", "est_sig") to its Variant. A few long-form aliases are accepted.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "design":
		return VariantDesign, nil
	case "true", "truth":
		return VariantTrue, nil
	case "survey":
		return VariantSurvey, nil
	case "photo", "photogrammetry":
		return VariantPhoto, nil
	case "est", "estimate":
		return VariantEstimate, nil
	case "est_sig", "estimate_sigma":
		return VariantEstimateSigma, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", s)
	}
}

// Role tags a device type as a leaf (sensor/emitter) or a container that
// owns and positions child devices.
type Role int

const (
	RoleLeaf Role = iota
	RoleContainer
)

func (r Role) String() string {
	switch r {
	case RoleLeaf:
		return "leaf"
	case RoleContainer:
		return "container"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}
