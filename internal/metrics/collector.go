package metrics

import (
	"time"

	"video-converter/internal/logging"
)

// StatsProvider reports what currently sits in the staging directory.
type StatsProvider interface {
	Usage() (files int, bytes int64, err error)
}

// Collector periodically samples staging usage. Files that linger there
// point at a cleanup path that did not run.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
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
	if c.statsProvider == nil {
		return
	}

	files, bytes, err := c.statsProvider.Usage()
	if err != nil {
		logging.Warn("Failed to sample staging usage: %v", err)
		return
	}

	StagingFiles.Set(float64(files))
	StagingBytes.Set(float64(bytes))

	logging.Debug("Metrics collected: staging files=%d, bytes=%d", files, bytes)
}
