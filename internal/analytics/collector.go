// Package analytics ships query events to Kafka off the evaluation path.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, records ...kafka.Record) error
}

// Collector buffers events and publishes them in batches, either when
// batchSize events are waiting or every flushInterval. Track never blocks;
// events are dropped when the buffer is full.
type Collector struct {
	publisher     Publisher
	eventCh       chan QueryEvent
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan QueryEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publishing loop. It runs until Close.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Record, 0, c.batchSize)
		flush := func() {
			if len(batch) == 0 {
				return
			}
			// Publishing outlives a cancelled run so the final batch is sent.
			pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := c.publisher.Publish(pubCtx, batch...); err != nil {
				c.logger.Error("failed to publish query events", "count", len(batch), "error", err)
			}
			cancel()
			batch = batch[:0]
		}

		for {
			select {
			case ev, ok := <-c.eventCh:
				if !ok {
					flush()
					return
				}
				batch = append(batch, kafka.Record{Key: ev.RunID, Value: ev})
				if len(batch) >= c.batchSize {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh), "batch_size", c.batchSize)
}

func (c *Collector) Track(ev QueryEvent) {
	select {
	case c.eventCh <- ev:
	default:
		c.logger.Warn("query event dropped (buffer full)", "query", ev.Query)
	}
}

// Close stops accepting events, publishes what is buffered and waits for
// the loop to exit. Start must have been called.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}
