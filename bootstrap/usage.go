package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadsafety/roadguard/adapters/metrics"
	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// LocalUsageRecorder buffers usage records and writes them to the
// store in batches. Record never blocks on storage; a failed batch is
// logged and dropped rather than failing any request.
type LocalUsageRecorder struct {
	store         ports.UsageStore
	log           zerolog.Logger
	metrics       *metrics.Collector
	buffer        []usage.Record
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewLocalUsageRecorder creates a new local usage recorder. The
// metrics collector is optional.
func NewLocalUsageRecorder(store ports.UsageStore, log zerolog.Logger, m *metrics.Collector, batchSize int, flushInterval time.Duration) *LocalUsageRecorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}

	r := &LocalUsageRecorder{
		store:         store,
		log:           log,
		metrics:       m,
		buffer:        make([]usage.Record, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.flushLoop()

	return r
}

// Record queues a usage record. When the buffer reaches the batch size
// the write happens in the background.
func (r *LocalUsageRecorder) Record(rec usage.Record) {
	r.mu.Lock()
	r.buffer = append(r.buffer, rec)
	depth := len(r.buffer)

	var batch []usage.Record
	if depth >= r.batchSize {
		batch = r.takeLocked()
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.UsageQueueDepth.Set(float64(depth % r.batchSize))
	}

	if batch != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			r.write(ctx, batch)
		}()
	}
}

// Flush synchronously writes everything queued so far.
func (r *LocalUsageRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.takeLocked()
	r.mu.Unlock()

	if batch == nil {
		return nil
	}
	return r.write(ctx, batch)
}

// takeLocked swaps the buffer out. Caller holds the mutex.
func (r *LocalUsageRecorder) takeLocked() []usage.Record {
	if len(r.buffer) == 0 {
		return nil
	}
	batch := make([]usage.Record, len(r.buffer))
	copy(batch, r.buffer)
	r.buffer = r.buffer[:0]
	return batch
}

func (r *LocalUsageRecorder) write(ctx context.Context, batch []usage.Record) error {
	err := r.store.RecordBatch(ctx, batch)
	if r.metrics != nil {
		r.metrics.UsageFlushes.Inc()
		if err != nil {
			r.metrics.UsageFlushErrors.Inc()
		} else {
			r.metrics.UsageRecordsFlushed.Add(float64(len(batch)))
		}
	}
	if err != nil {
		r.log.Error().Err(err).Int("records", len(batch)).Msg("usage batch write failed, dropping records")
	}
	return err
}

func (r *LocalUsageRecorder) flushLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// Close stops the recorder, waits for in-flight writes, and flushes
// whatever remains.
func (r *LocalUsageRecorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = r.Flush(ctx)
	})
	return err
}

// Ensure interface compliance.
var _ ports.UsageRecorder = (*LocalUsageRecorder)(nil)
