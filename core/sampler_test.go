package core

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/signalsfoundry/wcd-geometry/model"
)

func TestSampleZeroScaleReturnsMean(t *testing.T) {
	s := NewSeededSampler(1)
	for _, kind := range []model.DistributionKind{model.DistNormal, model.DistUniform, model.DistGamma} {
		for _, mean := range []float64{-3.5, 0, 2.2} {
			got, err := s.Sample(mean, 0, kind)
			if err != nil {
				t.Fatalf("Sample(%v, 0, %s): %v", mean, kind, err)
			}
			if got != mean {
				t.Fatalf("Sample(%v, 0, %s) = %v, want the mean", mean, kind, got)
			}
		}
	}
}

func TestSampleGammaIsPositive(t *testing.T) {
	s := NewSeededSampler(2)
	var sum float64
	const n = 10000
	for range n {
		v, err := s.Sample(1, 0.3, model.DistGamma)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if v <= 0 {
			t.Fatalf("gamma draw %v is not positive", v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean-1) > 0.03 {
		t.Fatalf("gamma sample mean %v, want about 1", mean)
	}
}

func TestSampleGammaNeedsPositiveMean(t *testing.T) {
	s := NewSeededSampler(3)
	for _, mean := range []float64{0, -1} {
		if _, err := s.Sample(mean, 0.5, model.DistGamma); !errors.Is(err, ErrInvalidDistribution) {
			t.Fatalf("Sample(%v, 0.5, gamma): got %v, want ErrInvalidDistribution", mean, err)
		}
	}
}

func TestSampleUniformStaysInRange(t *testing.T) {
	s := NewSeededSampler(4)
	for range 5000 {
		v, err := s.Sample(10, 2, model.DistUniform)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if v < 8 || v > 12 {
			t.Fatalf("uniform draw %v outside [8, 12]", v)
		}
	}
}

func TestSampleNormalMoments(t *testing.T) {
	s := NewSeededSampler(5)
	const n = 20000
	var sum, sumSq float64
	for range n {
		v, err := s.Sample(5, 2, model.DistNormal)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	if math.Abs(mean-5) > 0.1 || math.Abs(std-2) > 0.1 {
		t.Fatalf("normal mean %v std %v, want about 5 and 2", mean, std)
	}
}

func TestSampleRejectsBadScale(t *testing.T) {
	s := NewSampler(rand.NewPCG(1, 2))
	for _, scale := range []float64{-1, math.NaN()} {
		if _, err := s.Sample(0, scale, model.DistNormal); !errors.Is(err, ErrInvalidDistribution) {
			t.Fatalf("scale %v: got %v, want ErrInvalidDistribution", scale, err)
		}
	}
	if _, err := s.Sample(0, 1, model.DistributionKind(99)); !errors.Is(err, ErrInvalidDistribution) {
		t.Fatalf("unknown kind: got %v, want ErrInvalidDistribution", err)
	}
}

func TestSeededSamplersAgree(t *testing.T) {
	a, b := NewSeededSampler(9), NewSeededSampler(9)
	for range 100 {
		x, _ := a.Sample(0, 1, model.DistNormal)
		y, _ := b.Sample(0, 1, model.DistNormal)
		if x != y {
			t.Fatalf("seeded samplers diverged: %v vs %v", x, y)
		}
	}
}
