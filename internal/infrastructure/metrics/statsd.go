// Package metrics publishes service metrics to a StatsD agent.
package metrics

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/barcodelens/backend/config"
	"github.com/barcodelens/backend/internal/domain"
)

// StatsdPublisher implements domain.MetricsPublisher using the DataDog StatsD client
type StatsdPublisher struct {
	client statsd.ClientInterface
	logger *slog.Logger
}

// NewPublisher creates a publisher from config.
// If metrics are not enabled, returns a NoopPublisher instead.
func NewPublisher(cfg config.MetricsConfig, logger *slog.Logger) (domain.MetricsPublisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	opts := []statsd.Option{statsd.WithTags(cfg.Tags)}
	if prefix := strings.TrimSuffix(cfg.Prefix, "."); prefix != "" {
		opts = append(opts, statsd.WithNamespace(prefix+"."))
	}

	client, err := statsd.New(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("StatsD publisher initialized", "address", cfg.Address, "prefix", cfg.Prefix, "tags", cfg.Tags)

	return newStatsdPublisher(client, logger), nil
}

func newStatsdPublisher(client statsd.ClientInterface, logger *slog.Logger) *StatsdPublisher {
	return &StatsdPublisher{
		client: client,
		logger: logger.With("component", "statsd"),
	}
}

// Incr increments a counter by one
func (p *StatsdPublisher) Incr(name string, tags ...string) {
	if err := p.client.Incr(name, tags, 1); err != nil {
		p.logger.Debug("Failed to publish counter", "metric", name, "error", err)
	}
}

// Timing records a duration
func (p *StatsdPublisher) Timing(name string, value time.Duration, tags ...string) {
	if err := p.client.Timing(name, value, tags, 1); err != nil {
		p.logger.Debug("Failed to publish timing", "metric", name, "error", err)
	}
}

// Close flushes and closes the client
func (p *StatsdPublisher) Close() error {
	return p.client.Close()
}

// NoopPublisher discards every metric
type NoopPublisher struct{}

// Incr does nothing.
func (NoopPublisher) Incr(name string, tags ...string) {}

// Timing does nothing.
func (NoopPublisher) Timing(name string, value time.Duration, tags ...string) {}

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// Tag formats a key:value StatsD tag
func Tag(key, value string) string {
	return key + ":" + value
}

var (
	_ domain.MetricsPublisher = (*StatsdPublisher)(nil)
	_ domain.MetricsPublisher = NoopPublisher{}
)
