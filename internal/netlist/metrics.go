package netlist

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a snapshot of the engine counters.
type Stats struct {
	Triggers     int64 // UpdateTrigger calls
	Drained      int64 // identities taken from the dirty queue
	Aggregations int64 // group reaggregations
	Malformed    int64 // member fields skipped during aggregation
	Resorts      int64 // full display reorders
	Renders      int64 // cached artifacts recomputed
	CacheHits    int64 // artifacts served from cache
	Groups       int64 // groups in the display list after the last trigger
	Entities     int64 // entities held by the registry after the last trigger
}

type counters struct {
	triggers     atomic.Int64
	drained      atomic.Int64
	aggregations atomic.Int64
	malformed    atomic.Int64
	resorts      atomic.Int64
	renders      atomic.Int64
	cacheHits    atomic.Int64
	groups       atomic.Int64
	entities     atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Triggers:     c.triggers.Load(),
		Drained:      c.drained.Load(),
		Aggregations: c.aggregations.Load(),
		Malformed:    c.malformed.Load(),
		Resorts:      c.resorts.Load(),
		Renders:      c.renders.Load(),
		CacheHits:    c.cacheHits.Load(),
		Groups:       c.groups.Load(),
		Entities:     c.entities.Load(),
	}
}

// Collector exports engine counters to Prometheus. It only reads atomics, so it is
// safe to scrape while the engine runs on another goroutine.
type Collector struct {
	list *Netlist

	triggers     *prometheus.Desc
	drained      *prometheus.Desc
	aggregations *prometheus.Desc
	malformed    *prometheus.Desc
	resorts      *prometheus.Desc
	renders      *prometheus.Desc
	cacheHits    *prometheus.Desc
	groups       *prometheus.Desc
	entities     *prometheus.Desc
}

// NewCollector returns a collector over l.
func NewCollector(l *Netlist) *Collector {
	const ns = "gonetlist"
	return &Collector{
		list:         l,
		triggers:     prometheus.NewDesc(ns+"_triggers_total", "Update trigger passes.", nil, nil),
		drained:      prometheus.NewDesc(ns+"_drained_total", "Entity identities drained from the dirty queue.", nil, nil),
		aggregations: prometheus.NewDesc(ns+"_aggregations_total", "Group reaggregations.", nil, nil),
		malformed:    prometheus.NewDesc(ns+"_malformed_fields_total", "Member fields skipped during aggregation.", nil, nil),
		resorts:      prometheus.NewDesc(ns+"_resorts_total", "Full display list reorders.", nil, nil),
		renders:      prometheus.NewDesc(ns+"_renders_total", "Cached text artifacts recomputed.", nil, nil),
		cacheHits:    prometheus.NewDesc(ns+"_cache_hits_total", "Cached text artifacts served unchanged.", nil, nil),
		groups:       prometheus.NewDesc(ns+"_groups", "Groups in the display list.", nil, nil),
		entities:     prometheus.NewDesc(ns+"_entities", "Entities held by the group registry.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.triggers
	ch <- c.drained
	ch <- c.aggregations
	ch <- c.malformed
	ch <- c.resorts
	ch <- c.renders
	ch <- c.cacheHits
	ch <- c.groups
	ch <- c.entities
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.list.Stats()
	ch <- prometheus.MustNewConstMetric(c.triggers, prometheus.CounterValue, float64(s.Triggers))
	ch <- prometheus.MustNewConstMetric(c.drained, prometheus.CounterValue, float64(s.Drained))
	ch <- prometheus.MustNewConstMetric(c.aggregations, prometheus.CounterValue, float64(s.Aggregations))
	ch <- prometheus.MustNewConstMetric(c.malformed, prometheus.CounterValue, float64(s.Malformed))
	ch <- prometheus.MustNewConstMetric(c.resorts, prometheus.CounterValue, float64(s.Resorts))
	ch <- prometheus.MustNewConstMetric(c.renders, prometheus.CounterValue, float64(s.Renders))
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(s.Groups))
	ch <- prometheus.MustNewConstMetric(c.entities, prometheus.GaugeValue, float64(s.Entities))
}
