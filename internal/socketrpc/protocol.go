package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes the collector's model.StatsReader over a
// Unix domain socket, one newline-delimited JSON object per message.
//
//   Method          Params            Result
//   ─────────────   ───────────────   ──────────────
//   Snapshot        (none)            model.Snapshot
//   RecentEntries   {Limit: int}      []model.Entry
//   Health          (none)            Health
//
// RecentEntries accepts empty or null params; Limit <= 0 means the default.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Health is the result of the Health method.
type Health struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	TotalCount    uint64 `json:"total_count"`
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/logrelay/logstats.sock, falling back to
// ~/.local/state/logrelay/logstats.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "logrelay", "logstats.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/logstats.sock"
	}
	return filepath.Join(home, ".local", "state", "logrelay", "logstats.sock")
}
