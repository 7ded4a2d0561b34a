package httpserver

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/stats"
)

// MaxEntriesLimit caps the limit query parameter of the entry endpoints.
const MaxEntriesLimit = 1000

// ArchiveReader is the optional archive contract behind /api/archive.
type ArchiveReader interface {
	TotalCount() (int64, error)
	LevelCounts() (map[string]int64, error)
	RecentEntries(limit int) ([]model.Entry, error)
}

// Server provides a read-only HTTP API over live collector statistics.
type Server struct {
	addr      string
	stats     model.StatsReader
	archive   ArchiveReader
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. archive may be nil.
func NewServer(addr string, reader model.StatsReader, archive ArchiveReader) *Server {
	if addr == "" {
		addr = net.JoinHostPort(model.DefaultBindHost, strconv.Itoa(model.DefaultAPIPort))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		stats:   reader,
		archive: archive,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Server) handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/stats", s.handleStats)
	r.GET("/api/stats/text", s.handleStatsText)
	r.GET("/api/entries", s.handleEntries)
	r.GET("/api/archive", s.handleArchive)
	r.GET("/api/archive/entries", s.handleArchiveEntries)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).String(),
		"entry_count": snap.TotalCount,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	snap := s.stats.Snapshot()
	body := gin.H{"snapshot": snap, "min_length_set": snap.MinLength != stats.MinLengthUnset}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleStatsText(c *gin.Context) {
	c.String(http.StatusOK, stats.Format(s.stats.Snapshot())+"\n")
}

// entriesLimit reads ?limit=, defaulting to model.DefaultRecentEntries.
// On a bad value it writes the 400 response and returns false.
func entriesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return model.DefaultRecentEntries, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(n, MaxEntriesLimit), true
}

func writeEntries(c *gin.Context, entries []model.Entry) {
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"message": e.Message,
			"level":   e.Level.String(),
			"time":    e.Time,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
}

func (s *Server) handleEntries(c *gin.Context) {
	limit, ok := entriesLimit(c)
	if !ok {
		return
	}
	writeEntries(c, s.stats.RecentEntries(limit))
}

func (s *Server) handleArchive(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}
	total, err := s.archive.TotalCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive count"})
		return
	}
	levels, err := s.archive.LevelCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive levels"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "levels": levels})
}

func (s *Server) handleArchiveEntries(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}
	limit, ok := entriesLimit(c)
	if !ok {
		return
	}
	entries, err := s.archive.RecentEntries(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archived entries"})
		return
	}
	writeEntries(c, entries)
}
