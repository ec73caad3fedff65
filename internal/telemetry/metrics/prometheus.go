package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus builds the registry served on the metrics listener: runtime
// and process collectors, a liftlog_build_info gauge labeled with the running
// version and the given storage collectors. Nil collectors are skipped.
func SetupPrometheus(version string, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	if version == "" {
		version = "unknown"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "liftlog"}),
	)

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "liftlog",
		Name:        "build_info",
		Help:        "Always 1, labeled with the running version",
		ConstLabels: prometheus.Labels{"version": version},
	})
	buildInfo.Set(1)
	registry.MustRegister(buildInfo)

	for _, c := range extraCollectors {
		if c != nil {
			registry.MustRegister(c)
		}
	}

	return registry
}
