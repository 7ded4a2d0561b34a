package stats

import "github.com/tinytelemetry/logrelay/internal/model"

// Recent keeps the last N entries in a ring.
type Recent struct {
	buf   []model.Entry
	next  int
	count int
}

// NewRecent creates a ring holding up to size entries.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = model.DefaultRecentEntries
	}
	return &Recent{buf: make([]model.Entry, size)}
}

// Add records an entry, overwriting the oldest when full.
func (r *Recent) Add(e model.Entry) {
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Last returns up to limit entries, newest first. limit <= 0 means all.
func (r *Recent) Last(limit int) []model.Entry {
	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
