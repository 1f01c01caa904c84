package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/wcd-geometry/core"
	"github.com/signalsfoundry/wcd-geometry/internal/config"
	"github.com/signalsfoundry/wcd-geometry/internal/logging"
	"github.com/signalsfoundry/wcd-geometry/internal/observability"
	"github.com/signalsfoundry/wcd-geometry/kb"
	"github.com/signalsfoundry/wcd-geometry/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wcdgeom: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logging.ContextWithLogger(ctx, log)

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "wcdgeom failed", logging.Err(err))
		os.Exit(1)
	}
}

// run builds the configured tree, prints every device's frame relative to
// the root and, when a metrics address is set, serves /metrics until ctx is
// cancelled.
func run(ctx context.Context, cfg config.Config, log logging.Logger, out io.Writer) error {
	variant, err := cfg.ResolveVariant()
	if err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, os.Stderr, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	collector, err := observability.NewGeometryCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	builder, err := core.NewBuilder(catalog,
		core.WithSampler(core.NewSeededSampler(cfg.Seed)),
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
	)
	if err != nil {
		return err
	}
	root, err := builder.Build(ctx, core.RootSpec{Type: cfg.DeviceType, Kind: cfg.Kind, Name: cfg.Name})
	if err != nil {
		return fmt.Errorf("build %s: %w", cfg.DeviceType, err)
	}

	if err := printFrames(out, root, variant); err != nil {
		return err
	}

	if cfg.MetricsAddr == "" {
		return nil
	}
	srv := serveMetrics(cfg.MetricsAddr, collector, log)
	<-ctx.Done()
	return srv.Shutdown(context.Background())
}

func loadCatalog(path string) (*kb.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return kb.LoadCatalog(f)
}

// printFrames writes one row per device in pre-order. Devices without a
// placement for the variant are listed with dashes.
func printFrames(out io.Writer, root *core.Device, v model.Variant) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DEVICE\tTYPE\tKIND\tLOCATION\tDIRECTION_X\tDIRECTION_Z\n")
	err := root.Walk(func(d *core.Device) error {
		path := devicePath(d)
		frame, err := d.Resolve(v, root)
		switch {
		case errors.Is(err, core.ErrMissingPlacement):
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\n", path, d.Type(), d.Kind())
			return nil
		case err != nil:
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", path, d.Type(), d.Kind(),
			frame.Location, frame.DirectionX, frame.DirectionZ)
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func devicePath(d *core.Device) string {
	var parts []string
	for c := d; c != nil; c = c.Container() {
		parts = append(parts, c.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func serveMetrics(addr string, collector *observability.GeometryCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
