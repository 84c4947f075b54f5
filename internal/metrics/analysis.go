package metrics

import "github.com/prometheus/client_golang/prometheus"

// Analysis and catalog Prometheus metrics.
var (
	AnalysisResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_results_total",
			Help:      "Total analysis results by risk level",
		},
		[]string{"risk_level"},
	)

	NormalizerRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_repairs_total",
			Help:      "Model output fields replaced by defaults",
		},
		[]string{"field", "reason"},
	)

	CatalogProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Number of products in the installed catalog",
		},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Total catalog loads by status",
		},
		[]string{"status"},
	)
)
