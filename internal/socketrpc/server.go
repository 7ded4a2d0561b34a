package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tinytelemetry/logrelay/internal/model"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner.
	scannerInitBufSize = 64 * 1024
	// scannerMaxTokenSize is the maximum request size the scanner will accept.
	scannerMaxTokenSize = 1024 * 1024
)

// Server exposes a model.StatsReader over a Unix domain socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	stats      model.StatsReader
	listener   net.Listener
	startTime  time.Time
	wg         sync.WaitGroup
	quit       chan struct{}
	stopOnce   sync.Once
}

// NewServer creates a new socket RPC server.
func NewServer(socketPath string, reader model.StatsReader) *Server {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Server{
		socketPath: socketPath,
		stats:      reader,
		quit:       make(chan struct{}),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	// Remove a stale socket left by a crashed collector.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("socketrpc: another server is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln
	s.startTime = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("socketrpc: listening on %s", s.socketPath)
	return nil
}

// Stop closes the listener, waits for connections to drain, and removes the socket file.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.socketPath)
	})
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("socketrpc: accept error: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	// unblock the scanner on Stop
	go func() {
		select {
		case <-s.quit:
			conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
			continue
		}
		if err := encoder.Encode(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	marshalResult := func(v any) Response {
		data, err := json.Marshal(v)
		if err != nil {
			resp.Error = &RPCError{Code: codeInternalError, Message: err.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}

	switch req.Method {
	case "Snapshot":
		return marshalResult(s.stats.Snapshot())

	case "RecentEntries":
		var p struct{ Limit int }
		if err := json.Unmarshal(req.Params, &p); err != nil && len(req.Params) > 0 {
			resp.Error = &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
			return resp
		}
		limit := p.Limit
		if limit <= 0 {
			limit = model.DefaultRecentEntries
		}
		entries := s.stats.RecentEntries(limit)
		if entries == nil {
			entries = []model.Entry{}
		}
		return marshalResult(entries)

	case "Health":
		return marshalResult(Health{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
			TotalCount:    s.stats.Snapshot().TotalCount,
		})

	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}
