// Package tracing sets up the OpenTelemetry tracer used for run, chain and
// job spans. Tracing is off by default; a disabled provider hands out a
// no-op tracer.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterFile   = "file"
	ExporterOTLP   = "otlp"
)

// DefaultServiceName is the service.name resource attribute.
const DefaultServiceName = "regkit"

// Config configures the tracing subsystem.
type Config struct {
	// Enabled controls whether tracing is active
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Exporter is one of "none", "stdout", "file", "otlp"
	Exporter string `mapstructure:"exporter" yaml:"exporter" json:"exporter"`

	// FilePath is the JSON lines output of the "file" exporter
	FilePath string `mapstructure:"file_path" yaml:"file_path" json:"file_path"`

	// OTLPEndpoint is the gRPC collector of the "otlp" exporter
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint" json:"otlp_endpoint"`

	// SampleRate is the fraction of traces kept (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" json:"sample_rate"`

	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		Exporter:     ExporterStdout,
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
		ServiceName:  DefaultServiceName,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", c.SampleRate)
	}
	switch c.Exporter {
	case "", ExporterNone, ExporterStdout, ExporterFile, ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be %q, %q, %q or %q, got %q",
			ExporterNone, ExporterStdout, ExporterFile, ExporterOTLP, c.Exporter)
	}
	if c.Enabled && c.Exporter == ExporterFile && c.FilePath == "" {
		return errors.New("tracing.file_path is required when exporter is \"file\"")
	}
	return nil
}

// Provider wraps the SDK tracer provider and whatever the exporter writes to.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	closer   io.Closer
	enabled  bool
}

// NewProvider creates the tracer provider. Spans of the stdout exporter go
// to w so they do not mix with command output on stdout.
func NewProvider(cfg Config, w io.Writer) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer("noop")}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if w == nil {
		w = os.Stderr
	}

	var exporter sdktrace.SpanExporter
	var closer io.Closer
	var err error

	switch cfg.Exporter {
	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case ExporterFile:
		file, ferr := openTraceFile(cfg.FilePath)
		if ferr != nil {
			return nil, ferr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(file))
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("create file exporter: %w", err)
		}
		closer = file
	case ExporterOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		closer:   closer,
		enabled:  true,
	}, nil
}

func openTraceFile(path string) (*os.File, error) {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return file, nil
}

// Tracer returns the tracer for creating spans. It is never nil.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled returns whether tracing is enabled.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Shutdown flushes pending spans and releases the exporter's output.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.provider != nil {
		errs = append(errs, p.provider.Shutdown(ctx))
	}
	if p.closer != nil {
		errs = append(errs, p.closer.Close())
		p.closer = nil
	}
	return errors.Join(errs...)
}
