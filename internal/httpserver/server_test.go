package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeArchive struct {
	total   int64
	levels  map[string]int64
	entries []model.Entry
	err     error
	limit   int
}

func (f *fakeArchive) TotalCount() (int64, error)             { return f.total, f.err }
func (f *fakeArchive) LevelCounts() (map[string]int64, error) { return f.levels, f.err }

func (f *fakeArchive) RecentEntries(limit int) ([]model.Entry, error) {
	f.limit = limit
	if limit < len(f.entries) {
		return f.entries[:limit], f.err
	}
	return f.entries, f.err
}

func newTestServer(t *testing.T, archive ArchiveReader) (*stats.Aggregator, *gin.Engine) {
	t.Helper()
	agg := stats.NewAggregator()
	srv := NewServer("", agg, archive)
	srv.startTime = time.Now()
	return agg, srv.handler()
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	agg, r := newTestServer(t, nil)
	agg.Update(model.Entry{Message: "hello", Level: model.LevelInfo, Time: 1})

	w := get(t, r, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["entry_count"] != float64(1) {
		t.Errorf("entry_count = %v, want 1", body["entry_count"])
	}
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, r := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	agg, r := newTestServer(t, nil)

	w := get(t, r, "/api/stats")
	var empty struct {
		Snapshot     model.Snapshot `json:"snapshot"`
		MinLengthSet bool           `json:"min_length_set"`
	}
	decode(t, w, &empty)
	if empty.MinLengthSet {
		t.Error("min_length_set should be false before any entry")
	}

	agg.Update(model.Entry{Message: "abc", Level: model.LevelWarn, Time: 1})
	agg.Update(model.Entry{Message: "abcdefg", Level: model.LevelError, Time: 2})

	w = get(t, r, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var body struct {
		Snapshot     model.Snapshot `json:"snapshot"`
		MinLengthSet bool           `json:"min_length_set"`
	}
	decode(t, w, &body)
	want := agg.Snapshot()
	if body.Snapshot != want || !body.MinLengthSet {
		t.Errorf("stats = %+v, want %+v", body, want)
	}
}

func TestStatsTextEndpoint(t *testing.T) {
	agg, r := newTestServer(t, nil)
	agg.Update(model.Entry{Message: "abc", Level: model.LevelInfo, Time: 1})

	w := get(t, r, "/api/stats/text")
	body, _ := io.ReadAll(w.Body)
	if !strings.HasPrefix(string(body), "Message statistic:\ncount: 1\n") {
		t.Errorf("text body = %q", body)
	}
}

func TestEntriesEndpoint(t *testing.T) {
	agg, r := newTestServer(t, nil)
	for i, msg := range []string{"a", "b", "c"} {
		agg.Update(model.Entry{Message: msg, Level: model.LevelWarn, Time: int64(i)})
	}

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
		wantFirst string
	}{
		{name: "default limit", path: "/api/entries", wantCode: http.StatusOK, wantCount: 3, wantFirst: "c"},
		{name: "explicit limit", path: "/api/entries?limit=2", wantCode: http.StatusOK, wantCount: 2, wantFirst: "c"},
		{name: "zero limit", path: "/api/entries?limit=0", wantCode: http.StatusBadRequest},
		{name: "bad limit", path: "/api/entries?limit=abc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, r, tt.path)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Entries []struct {
					Message string `json:"message"`
					Level   string `json:"level"`
				} `json:"entries"`
				Count int `json:"count"`
			}
			decode(t, w, &body)
			if body.Count != tt.wantCount || len(body.Entries) != tt.wantCount {
				t.Fatalf("count = %d, want %d", body.Count, tt.wantCount)
			}
			if body.Entries[0].Message != tt.wantFirst || body.Entries[0].Level != "WARN" {
				t.Errorf("first entry = %+v", body.Entries[0])
			}
		})
	}
}

func TestArchiveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		archive  ArchiveReader
		wantCode int
	}{
		{name: "disabled", archive: nil, wantCode: http.StatusNotFound},
		{name: "ok", archive: &fakeArchive{total: 3, levels: map[string]int64{"INFO": 3}}, wantCode: http.StatusOK},
		{name: "error", archive: &fakeArchive{err: errors.New("boom")}, wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newTestServer(t, tt.archive)
			w := get(t, r, "/api/archive")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestArchiveEntriesEndpoint(t *testing.T) {
	stored := []model.Entry{
		{Message: "disk failure", Level: model.LevelError, Time: 30},
		{Message: "slow query", Level: model.LevelWarn, Time: 20},
		{Message: "started", Level: model.LevelInfo, Time: 10},
	}
	tests := []struct {
		name      string
		archive   *fakeArchive
		query     string
		wantCode  int
		wantCount int
		wantLimit int
	}{
		{name: "default limit", archive: &fakeArchive{entries: stored}, wantCode: http.StatusOK, wantCount: 3, wantLimit: model.DefaultRecentEntries},
		{name: "limit", archive: &fakeArchive{entries: stored}, query: "?limit=2", wantCode: http.StatusOK, wantCount: 2, wantLimit: 2},
		{name: "capped", archive: &fakeArchive{entries: stored}, query: "?limit=999999", wantCode: http.StatusOK, wantCount: 3, wantLimit: MaxEntriesLimit},
		{name: "bad limit", archive: &fakeArchive{entries: stored}, query: "?limit=zero", wantCode: http.StatusBadRequest},
		{name: "read error", archive: &fakeArchive{err: errors.New("boom")}, wantCode: http.StatusInternalServerError, wantLimit: model.DefaultRecentEntries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newTestServer(t, tt.archive)
			w := get(t, r, "/api/archive/entries"+tt.query)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.archive.limit != tt.wantLimit {
				t.Errorf("archive asked for %d entries, want %d", tt.archive.limit, tt.wantLimit)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Entries []struct {
					Message string `json:"message"`
					Level   string `json:"level"`
				} `json:"entries"`
				Count int `json:"count"`
			}
			decode(t, w, &body)
			if body.Count != tt.wantCount {
				t.Fatalf("count = %d, want %d", body.Count, tt.wantCount)
			}
			if body.Entries[0].Message != "disk failure" || body.Entries[0].Level != "ERROR" {
				t.Errorf("first entry = %+v", body.Entries[0])
			}
		})
	}
}

func TestArchiveEntriesDisabled(t *testing.T) {
	_, r := newTestServer(t, nil)
	if w := get(t, r, "/api/archive/entries"); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestStartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", stats.NewAggregator(), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
