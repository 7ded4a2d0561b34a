package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tinytelemetry/logrelay/internal/framing"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
)

// DefaultDialTimeout bounds how long Open waits for the collector.
const DefaultDialTimeout = 10 * time.Second

// SocketSession ships wire-encoded entries to a collector as length-prefixed frames.
type SocketSession struct {
	host        string
	port        string
	dialTimeout time.Duration
	conn        net.Conn
}

// NewSocketSession creates a session for a numeric IPv4 host and port.
// An optional dial timeout may be passed; it defaults to DefaultDialTimeout.
func NewSocketSession(host, port string, dialTimeout ...time.Duration) *SocketSession {
	timeout := DefaultDialTimeout
	if len(dialTimeout) > 0 && dialTimeout[0] > 0 {
		timeout = dialTimeout[0]
	}
	return &SocketSession{host: host, port: port, dialTimeout: timeout}
}

// ResolveIPv4 converts a numeric host and port into a TCP endpoint. Host
// names are rejected; only dotted-quad addresses are accepted.
func ResolveIPv4(host, port string) (*net.TCPAddr, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid host %q", host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	return &net.TCPAddr{IP: ip.To4(), Port: p}, nil
}

// Open connects to the collector.
func (s *SocketSession) Open() error {
	if s.conn != nil {
		return nil
	}
	addr, err := ResolveIPv4(s.host, s.port)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenSession, err)
	}
	conn, err := net.DialTimeout("tcp4", addr.String(), s.dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenSession, err)
	}
	s.conn = conn
	return nil
}

// Close half-closes the write side so the collector sees end of stream,
// then releases the connection.
func (s *SocketSession) Close() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil

	var shutdownErr error
	if tcp, ok := conn.(*net.TCPConn); ok {
		shutdownErr = tcp.CloseWrite()
	}
	closeErr := conn.Close()
	if shutdownErr != nil {
		return fmt.Errorf("%w: shutdown: %v", ErrCloseSession, shutdownErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %v", ErrCloseSession, closeErr)
	}
	return nil
}

// Write sends the wire form of entry as one frame.
func (s *SocketSession) Write(entry model.Entry) error {
	if s.conn == nil {
		return fmt.Errorf("%w: not connected to %s", ErrWrite, net.JoinHostPort(s.host, s.port))
	}
	if err := framing.SendString(s.conn, protocol.Encode(entry)); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// RemoteAddr returns the connected collector address, or "" before Open.
func (s *SocketSession) RemoteAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}
