// Package metrics records the outcome of a run for the node exporter
// textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"comic-market-watch/models"
)

const namespace = "comic_market_watch"

// Metrics holds the gauges of a single run on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	listingsFetched prometheus.Gauge
	pricesParsed    prometheus.Gauge
	itemsSkipped    prometheus.Gauge
	averagePrice    prometheus.Gauge
	topSalePrice    prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// New creates and registers the run gauges.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		listingsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_fetched",
			Help:      "Number of sold listings returned by the last run.",
		}),
		pricesParsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prices_parsed",
			Help:      "Number of listings with a usable price in the last run.",
		}),
		itemsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_skipped",
			Help:      "Number of listings skipped for a missing or malformed price.",
		}),
		averagePrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_price",
			Help:      "Average sold price of the last run.",
		}),
		topSalePrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "top_sale_price",
			Help:      "Highest sold price of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that rendered both outputs.",
		}),
	}

	m.reg.MustRegister(
		m.listingsFetched,
		m.pricesParsed,
		m.itemsSkipped,
		m.averagePrice,
		m.topSalePrice,
		m.lastSuccess,
	)
	return m
}

// Observe records the aggregates of r.
func (m *Metrics) Observe(r *models.Report) {
	m.listingsFetched.Set(float64(r.Count + r.Skipped))
	m.pricesParsed.Set(float64(r.Count))
	m.itemsSkipped.Set(float64(r.Skipped))
	m.averagePrice.Set(r.Average)
	m.topSalePrice.Set(r.Price)
}

// MarkSuccess stamps the time at which both outputs were written.
func (m *Metrics) MarkSuccess(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// Gatherer exposes the registry, mostly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteTextfile atomically replaces path with the text exposition of all gauges.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("could not write metrics textfile: %w", err)
	}
	return nil
}
