package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/signalsfoundry/wcd-geometry/model"
)

// Sampler draws scalar values from the distributions devices declare for
// their properties and placement noise. It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	src rand.Source
}

// NewSampler returns a sampler drawing from src. A nil src uses the
// process-wide random source.
func NewSampler(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// NewSeededSampler returns a reproducible sampler.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample draws one value with the given mean and scale.
//
// A zero scale returns mean exactly, for every kind. For the normal kind
// scale is the standard deviation; for uniform it is the half-width of
// [mean-scale, mean+scale]; for gamma the shape and scale are chosen so the
// draw has the requested mean and standard deviation, which requires
// mean > 0.
func (s *Sampler) Sample(mean, scale float64, kind model.DistributionKind) (float64, error) {
	if math.IsNaN(mean) || math.IsNaN(scale) || scale < 0 {
		return 0, fmt.Errorf("%w: mean %v scale %v", ErrInvalidDistribution, mean, scale)
	}
	if scale == 0 {
		return mean, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case model.DistNormal:
		return distuv.Normal{Mu: mean, Sigma: scale, Src: s.src}.Rand(), nil
	case model.DistUniform:
		return distuv.Uniform{Min: mean - scale, Max: mean + scale, Src: s.src}.Rand(), nil
	case model.DistGamma:
		if !(mean > 0) {
			return 0, fmt.Errorf("%w: gamma needs a positive mean, got %v", ErrInvalidDistribution, mean)
		}
		variance := scale * scale
		return distuv.Gamma{Alpha: mean * mean / variance, Beta: mean / variance, Src: s.src}.Rand(), nil
	default:
		return 0, fmt.Errorf("%w: unknown distribution %v", ErrInvalidDistribution, kind)
	}
}
