package metrics

// ExporterKind selects how metrics leave the process.
type ExporterKind string

const (
	// ExporterPrometheus registers a pull reader on the default registry.
	ExporterPrometheus ExporterKind = "prometheus"
	// ExporterOTLP pushes periodically to a gRPC collector.
	ExporterOTLP ExporterKind = "otlp"
)

// Exporter is one metric reader to install.
type Exporter struct {
	Kind     ExporterKind
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Prometheus returns the pull exporter served by ServePrometheusMetrics.
func Prometheus() Exporter {
	return Exporter{Kind: ExporterPrometheus}
}

// OTLP returns a push exporter. Headers carry collector auth such as
// x-honeycomb-team.
func OTLP(endpoint string, headers map[string]string, insecure bool) Exporter {
	return Exporter{
		Kind:     ExporterOTLP,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: insecure,
	}
}

// Config describes the meter provider.
type Config struct {
	ServiceName string
	Exporters   []Exporter
}

// Option mutates Config.
type Option func(*Config)

// WithExporter adds a reader; repeated calls install several.
func WithExporter(e Exporter) Option {
	return func(c *Config) {
		c.Exporters = append(c.Exporters, e)
	}
}

// WithServiceName sets service.name on the metric resource.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

type serverConfig struct {
	port string
}

// ServerOption configures the scrape server.
type ServerOption func(*serverConfig)

// WithPort overrides the default scrape port.
func WithPort(port string) ServerOption {
	return func(c *serverConfig) {
		c.port = port
	}
}
