package conf

import (
	"fmt"

	"github.com/squareup/shardmerge/errors"
)

const (
	DefaultMaxMemoryMergeRows    = 1_000_000
	DefaultCancelCheckInterval   = 1000
	DefaultMetricsHTTPListenAddr = "localhost:2112"
)

// Config controls the merge engine. It is embedded in the mergerunner command line, so fields carry kong tags as
// well as json tags for config files.
type Config struct {
	MaxMemoryMergeRows    int64  `json:"max_memory_merge_rows,omitempty" help:"Maximum number of shard rows a memory merge may materialize, 0 for no limit" default:"1000000"`
	CancelCheckInterval   int    `json:"cancel_check_interval,omitempty" help:"Number of shard rows drained between cancellation checks" default:"1000"`
	EnableMetrics         bool   `json:"enable_metrics,omitempty" help:"Export merge metrics to Prometheus"`
	MetricsHTTPListenAddr string `json:"metrics_http_listen_addr,omitempty" help:"Address the Prometheus exporter listens on" default:"localhost:2112"`
}

func (c *Config) Validate() error {
	if c.MaxMemoryMergeRows < 0 {
		return errors.NewInvalidConfigurationError("MaxMemoryMergeRows must be >= 0")
	}
	if c.CancelCheckInterval < 1 {
		return errors.NewInvalidConfigurationError("CancelCheckInterval must be >= 1")
	}
	if c.EnableMetrics && c.MetricsHTTPListenAddr == "" {
		return errors.NewInvalidConfigurationError("MetricsHTTPListenAddr must be specified when EnableMetrics is true")
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("maxMemoryMergeRows=%d cancelCheckInterval=%d enableMetrics=%t metricsAddr=%s",
		c.MaxMemoryMergeRows, c.CancelCheckInterval, c.EnableMetrics, c.MetricsHTTPListenAddr)
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxMemoryMergeRows:    DefaultMaxMemoryMergeRows,
		CancelCheckInterval:   DefaultCancelCheckInterval,
		MetricsHTTPListenAddr: DefaultMetricsHTTPListenAddr,
	}
}

// NewTestConfig returns a config with a small memory limit and a cancellation check on every row.
func NewTestConfig() *Config {
	return &Config{
		MaxMemoryMergeRows:  1000,
		CancelCheckInterval: 1,
	}
}
