// Package shipper moves raw input lines to a log sink using two goroutines:
// a producer that reads lines and a worker that owns the sink. They share
// nothing but a channel.Channel.
package shipper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tinytelemetry/logrelay/internal/channel"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxLineSize is the default maximum size (in bytes) of a single input line.
const DefaultMaxLineSize = 1024 * 1024 // 1MB

// Sink is the worker-side contract; *session.Logger satisfies it.
type Sink interface {
	Open() error
	Close() error
	LogWrite(raw string, ts int64) error
}

// Config holds tunable parameters for a shipping run.
type Config struct {
	MaxLineSize int
	// Now stamps each line as it is read. Defaults to time.Now.
	Now func() time.Time
}

// Run ships every line of input to sink until input ends, ctx is cancelled,
// or the sink fails. Lines accepted before a sink failure are still offered
// to the sink, in order, before Run returns. The returned error is the first
// sink failure, if any.
func Run(ctx context.Context, input io.Reader, sink Sink, conf ...Config) error {
	maxLineSize := DefaultMaxLineSize
	now := time.Now
	if len(conf) > 0 {
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
		if conf[0].Now != nil {
			now = conf[0].Now
		}
	}

	ch := channel.New()

	// Plain group: a worker failure must reach the producer only through
	// Send returning false, never through a shared cancellation.
	var g errgroup.Group
	g.Go(func() error {
		produce(ctx, input, ch, maxLineSize, now)
		return nil
	})
	g.Go(func() error {
		return work(sink, ch)
	})
	return g.Wait()
}

// produce reads lines and hands them to the worker. It always ends by
// marking the producer side done.
func produce(ctx context.Context, input io.Reader, ch *channel.Channel, maxLineSize int, now func() time.Time) {
	defer ch.CloseSend()

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// The scan runs in its own goroutine so cancellation does not wait on a
	// blocked read.
	lines := make(chan string)
	scanDone := make(chan struct{})
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-scanDone:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				log.Printf("shipper: input line exceeded max size (%d bytes), stopping input", maxLineSize)
				return
			}
			log.Printf("shipper: input read error: %v", err)
		}
	}()
	defer close(scanDone)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !ch.Send(line, now().Unix()) {
				// The worker gave up; stop reading.
				return
			}
		}
	}
}

// work owns the sink for its whole lifetime.
func work(sink Sink, ch *channel.Channel) error {
	if err := sink.Open(); err != nil {
		log.Printf("shipper: %v", err)
		ch.CloseReceive()
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("shipper: %v", err)
		}
	}()

	for {
		msg, ok := ch.Receive()
		if !ok {
			return nil
		}
		if err := sink.LogWrite(msg.Line, msg.Timestamp); err != nil {
			log.Printf("shipper: %v", err)
			ch.CloseReceive()
			drain(sink, ch)
			return fmt.Errorf("write entry: %w", err)
		}
	}
}

// drain offers already-queued lines to the sink without waiting for new
// ones. It stops at the first further failure.
func drain(sink Sink, ch *channel.Channel) {
	for {
		msg, ok := ch.TryReceive()
		if !ok {
			return
		}
		if err := sink.LogWrite(msg.Line, msg.Timestamp); err != nil {
			log.Printf("shipper: drain: %v", err)
			return
		}
	}
}
