// Package statserver receives framed log entries from one shipper at a
// time, folds them into a stats.Aggregator and prints every entry along
// with periodic statistics snapshots.
//
// A snapshot is printed when the total entry count reaches a multiple of
// the message interval, and when no frame arrives within the flush
// interval while the count has grown since the last snapshot.
package statserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/tinytelemetry/logrelay/internal/framing"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
	"github.com/tinytelemetry/logrelay/internal/stats"
)

// ErrBind reports that the listening socket could not be set up.
var ErrBind = errors.New("statserver: bind failed")

// Snapshot triggers, as reported to the Recorder.
const (
	TriggerCount   = "count"
	TriggerTimeout = "timeout"
)

// EntrySink receives a copy of every decoded entry, e.g. an archive buffer.
type EntrySink interface {
	Add(entry model.Entry)
}

// Recorder observes ingest events for metrics.
type Recorder interface {
	EntryReceived(ctx context.Context, e model.Entry)
	FrameRejected(ctx context.Context)
	ConnectionAccepted(ctx context.Context)
	SnapshotPrinted(ctx context.Context, trigger string)
}

// ServerConfig holds tunable parameters for the server.
type ServerConfig struct {
	MessageInterval uint64
	FlushInterval   time.Duration
	MaxFrameSize    uint32
	Output          io.Writer
	Sinks           []EntrySink
	Recorder        Recorder
}

// Server is the single-connection aggregation loop.
type Server struct {
	addr     string
	listener net.Listener
	agg      *stats.Aggregator

	messageInterval uint64
	flushInterval   time.Duration
	maxFrameSize    uint32
	out             io.Writer
	sinks           []EntrySink
	recorder        Recorder

	lastDisplayed uint64
}

// NewServer creates a server feeding agg. Default addr is "127.0.0.1:4000".
func NewServer(addr string, agg *stats.Aggregator, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = net.JoinHostPort(model.DefaultBindHost, fmt.Sprint(model.DefaultCollectorPort))
	}
	if agg == nil {
		agg = stats.NewAggregator()
	}
	s := &Server{
		addr:            addr,
		agg:             agg,
		messageInterval: model.DefaultMessageInterval,
		flushInterval:   model.DefaultFlushInterval,
		maxFrameSize:    framing.DefaultMaxFrameSize,
		out:             os.Stdout,
	}
	if len(conf) > 0 {
		c := conf[0]
		if c.MessageInterval > 0 {
			s.messageInterval = c.MessageInterval
		}
		if c.FlushInterval > 0 {
			s.flushInterval = c.FlushInterval
		}
		if c.MaxFrameSize > 0 {
			s.maxFrameSize = c.MaxFrameSize
		}
		if c.Output != nil {
			s.out = c.Output
		}
		s.sinks = c.Sinks
		s.recorder = c.Recorder
	}
	return s
}

// Listen binds the IPv4 listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp4", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBind, s.addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the active listen address.
// Before Listen, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Aggregator returns the statistics the server updates.
func (s *Server) Aggregator() *stats.Aggregator {
	return s.agg
}

// Run accepts connections one at a time until ctx is cancelled or accept
// fails permanently. Cancellation closes the listener and returns nil.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() { s.listener.Close() })
	defer stop()
	defer s.listener.Close()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if retryableAccept(err) {
				log.Printf("statserver: accept: %v, retrying", err)
				continue
			}
			return fmt.Errorf("statserver: accept: %w", err)
		}
		if s.recorder != nil {
			s.recorder.ConnectionAccepted(ctx)
		}
		s.serveConn(ctx, conn)
	}
}

func retryableAccept(err error) bool {
	if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type frame struct {
	payload []byte
	err     error
}

// serveConn owns conn until the peer hangs up, a read fails or ctx ends.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr()
	frames := make(chan frame)
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		for {
			payload, err := framing.ReceiveLimit(conn, s.maxFrameSize)
			select {
			case frames <- frame{payload: payload, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(s.flushInterval)
	defer timer.Stop()

	for {
		timer.Reset(s.flushInterval)
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			if f.err != nil {
				if errors.Is(f.err, framing.ErrConnectionClosed) {
					log.Printf("statserver: %s disconnected", remote)
				} else {
					log.Printf("statserver: closing %s: %v", remote, f.err)
				}
				return
			}
			s.handleFrame(ctx, f.payload)
		case <-timer.C:
			if s.agg.TotalCount() > s.lastDisplayed {
				s.display(ctx, TriggerTimeout)
			}
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, payload []byte) {
	entry, err := protocol.Decode(string(payload))
	if err != nil {
		log.Printf("statserver: %v", err)
		if s.recorder != nil {
			s.recorder.FrameRejected(ctx)
		}
		return
	}

	fmt.Fprintln(s.out, protocol.PrintLogEntry(entry))
	s.agg.Update(entry)
	for _, sink := range s.sinks {
		sink.Add(entry)
	}
	if s.recorder != nil {
		s.recorder.EntryReceived(ctx, entry)
	}

	if s.agg.TotalCount()%s.messageInterval == 0 {
		s.display(ctx, TriggerCount)
	}
}

func (s *Server) display(ctx context.Context, trigger string) {
	snap := s.agg.Snapshot()
	s.lastDisplayed = snap.TotalCount
	if err := stats.Display(s.out, snap); err != nil {
		log.Printf("statserver: write snapshot: %v", err)
	}
	if s.recorder != nil {
		s.recorder.SnapshotPrinted(ctx, trigger)
	}
}
