package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GeometryCollector bundles Prometheus metrics for device-tree construction
// and frame resolution. It satisfies core.MetricsRecorder.
type GeometryCollector struct {
	gatherer prometheus.Gatherer

	DevicesBuilt     *prometheus.CounterVec
	TreesBuilt       *prometheus.CounterVec
	FrameResolutions *prometheus.CounterVec
	ResolutionDepth  prometheus.Histogram
}

// NewGeometryCollector registers geometry metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewGeometryCollector(reg prometheus.Registerer) (*GeometryCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	devices, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wcd_devices_built_total",
		Help: "Total number of devices constructed, labeled by device type and kind.",
	}, []string{"device_type", "kind"}), "wcd_devices_built_total")
	if err != nil {
		return nil, err
	}

	trees, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wcd_trees_built_total",
		Help: "Total number of complete device trees constructed, labeled by root type and kind.",
	}, []string{"device_type", "kind"}), "wcd_trees_built_total")
	if err != nil {
		return nil, err
	}

	resolutions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wcd_frame_resolutions_total",
		Help: "Total number of frame resolutions, labeled by placement variant and result.",
	}, []string{"variant", "result"}), "wcd_frame_resolutions_total")
	if err != nil {
		return nil, err
	}

	depth, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wcd_frame_resolution_depth",
		Help:    "Number of container levels traversed per frame resolution.",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	}), "wcd_frame_resolution_depth")
	if err != nil {
		return nil, err
	}

	return &GeometryCollector{
		gatherer:         gatherer,
		DevicesBuilt:     devices,
		TreesBuilt:       trees,
		FrameResolutions: resolutions,
		ResolutionDepth:  depth,
	}, nil
}

// DeviceBuilt counts one constructed device.
func (c *GeometryCollector) DeviceBuilt(deviceType, kind string) {
	if c == nil || c.DevicesBuilt == nil {
		return
	}
	c.DevicesBuilt.WithLabelValues(deviceType, kind).Inc()
}

// TreeBuilt counts one completed tree.
func (c *GeometryCollector) TreeBuilt(deviceType, kind string) {
	if c == nil || c.TreesBuilt == nil {
		return
	}
	c.TreesBuilt.WithLabelValues(deviceType, kind).Inc()
}

// FrameResolved records the outcome and traversal depth of one resolution.
func (c *GeometryCollector) FrameResolved(variant, result string, depth int) {
	if c == nil {
		return
	}
	if c.FrameResolutions != nil {
		c.FrameResolutions.WithLabelValues(variant, result).Inc()
	}
	if c.ResolutionDepth != nil {
		c.ResolutionDepth.Observe(float64(depth))
	}
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *GeometryCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GeometryCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
