// Package channel provides an unbounded, one-way FIFO handoff between a
// single producer goroutine and a single consumer goroutine.
//
// Each side owns one done flag. The producer sets its flag with CloseSend when
// it has nothing more to offer; from then on a blocking Receive returns once
// the queue is empty. The consumer sets its flag with CloseReceive when it can
// no longer process input; from then on Send refuses new messages. The flags
// are independent: the consumer can keep draining with TryReceive after
// giving up, and the producer learns about consumer failure only through Send.
package channel

import (
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// Channel is a thread-safe queue of ingest envelopes. The zero value is not
// usable; construct with New.
type Channel struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []model.IngestEnvelope

	producerDone atomic.Bool
	consumerDone atomic.Bool
}

// New creates an empty channel.
func New() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues a line and wakes one waiting receiver. It returns false, and
// enqueues nothing, once the consumer has called CloseReceive.
func (c *Channel) Send(line string, timestamp int64) bool {
	if c.consumerDone.Load() {
		return false
	}
	c.mu.Lock()
	if c.consumerDone.Load() {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, model.IngestEnvelope{Line: line, Timestamp: timestamp})
	c.mu.Unlock()
	c.cond.Signal()
	return true
}

// Receive blocks until a message is available or the producer has called
// CloseSend. ok is false only when the producer is done and the queue is empty.
func (c *Channel) Receive() (model.IngestEnvelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.producerDone.Load() {
		c.cond.Wait()
	}
	return c.popLocked()
}

// TryReceive pops the oldest message without waiting. It ignores the
// producer's done flag and is meant for draining after a consumer failure.
func (c *Channel) TryReceive() (model.IngestEnvelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked()
}

// CloseSend marks the producer as done. Receivers blocked on an empty queue
// wake up and return ok=false.
func (c *Channel) CloseSend() {
	c.producerDone.Store(true)
	// Taking the lock orders the store against a receiver between its
	// predicate check and Wait.
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}

// CloseReceive marks the consumer as done. Every later Send returns false.
func (c *Channel) CloseReceive() {
	c.mu.Lock()
	c.consumerDone.Store(true)
	c.mu.Unlock()
}

// Len reports the number of queued messages.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Channel) popLocked() (model.IngestEnvelope, bool) {
	if len(c.queue) == 0 {
		return model.IngestEnvelope{}, false
	}
	msg := c.queue[0]
	c.queue[0] = model.IngestEnvelope{}
	c.queue = c.queue[1:]
	if len(c.queue) == 0 {
		c.queue = nil
	}
	return msg, true
}
