package metrics

import (
	"time"

	"media-transcoder/internal/logging"
)

// StatusCounter reports how many job records exist per status.
type StatusCounter interface {
	CountByStatus() map[string]int
}

// DBStatsUpdater refreshes connection pool gauges.
type DBStatsUpdater interface {
	UpdateDBMetrics()
}

// Collector periodically refreshes the JobsByStatus gauge and, when a
// database is tracked, its connection gauges.
type Collector struct {
	counter  StatusCounter
	db       DBStatsUpdater
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(counter StatusCounter, interval time.Duration) *Collector {
	return &Collector{
		counter:  counter,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// TrackDatabase adds db to the collection loop. Call before Start.
func (c *Collector) TrackDatabase(db DBStatsUpdater) {
	c.db = db
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.db != nil {
		c.db.UpdateDBMetrics()
	}

	if c.counter == nil {
		return
	}

	counts := c.counter.CountByStatus()
	total := 0
	for _, status := range jobStatuses {
		n := counts[status]
		total += n
		JobsByStatus.WithLabelValues(status).Set(float64(n))
	}

	logging.Debug("Metrics collected: %d job records", total)
}
