package archive

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/logrelay/internal/model"
)

const (
	// DefaultBatchSize is the number of entries that triggers an immediate flush.
	DefaultBatchSize = 500

	// DefaultFlushInterval is how often partial batches are flushed.
	DefaultFlushInterval = time.Second

	// DefaultFlushQueueSize is the number of batches that can wait for the writer.
	DefaultFlushQueueSize = 64
)

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
}

// InsertBuffer batches entries and writes them from a background goroutine.
// Add never blocks on the database unless the flush queue is full.
type InsertBuffer struct {
	writer        model.EntryWriter
	mu            sync.Mutex
	pending       []model.Entry
	flushChan     chan []model.Entry
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup
	stopOnce      sync.Once

	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix seconds
}

// NewInsertBuffer starts a buffer flushing to writer.
func NewInsertBuffer(writer model.EntryWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := DefaultBatchSize
	flushInterval := DefaultFlushInterval
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:        writer,
		pending:       make([]model.Entry, 0, batchSize),
		flushChan:     make(chan []model.Entry, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

func (b *InsertBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending()
			return
		}
	}
}

// logBackpressure logs at most once every 10 seconds.
func (b *InsertBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("archive: backpressure, %d inline flushes (flush queue full)", count)
	}
}

func (b *InsertBuffer) drainPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]model.Entry, 0, b.maxBatch)
	b.mu.Unlock()

	b.enqueue(batch, "tick")
}

func (b *InsertBuffer) enqueue(batch []model.Entry, origin string) {
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.writer.InsertEntryBatch(batch); err != nil {
			log.Printf("archive: flush error (%s-inline): %v", origin, err)
		}
	}
}

func (b *InsertBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.writer.InsertEntryBatch(batch); err != nil {
			log.Printf("archive: flush error: %v", err)
		}
	}
}

// Add queues an entry for batch insertion.
func (b *InsertBuffer) Add(entry model.Entry) {
	b.mu.Lock()
	b.pending = append(b.pending, entry)
	var batch []model.Entry
	if len(b.pending) >= b.maxBatch {
		batch = b.pending
		b.pending = make([]model.Entry, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if batch != nil {
		b.enqueue(batch, "overflow")
	}
}

// Stop flushes remaining entries and waits for all writes to finish.
// Add must not be called after Stop.
func (b *InsertBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
	})
}
