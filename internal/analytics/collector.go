package analytics

import (
	"context"
	"log/slog"

	"github.com/woodway-ua/photoindex/pkg/kafka"
	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/metrics"
)

// Collector buffers events and publishes them to Kafka in the background.
// Track never blocks; when the buffer is full the event is dropped and
// counted.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan any
	done     chan struct{}
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer *kafka.Producer, bufferSize int, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan any, bufferSize),
		done:     make(chan struct{}),
		metrics:  m,
		logger:   logger.WithComponent("analytics-collector"),
	}
}

// Start launches the publish loop. It drains buffered events when ctx is
// cancelled before exiting.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event without blocking.
func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		if c.metrics != nil {
			c.metrics.QueryEventsDropped.Inc()
		}
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publish loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event any) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: "query", Value: event}); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
