package archive

import (
	"context"
	"log"
	"time"
)

const (
	// DefaultRetention is how long archived entries are kept. Age is
	// measured from the time the shipper stamped on the entry.
	DefaultRetention = 30 * 24 * time.Hour
	// DefaultPruneInterval is how often RunRetention prunes.
	DefaultPruneInterval = time.Hour
)

// Prune deletes entries stamped more than maxAge before now.
func (s *Store) Prune(now time.Time, maxAge time.Duration) (int64, error) {
	return s.DeleteBefore(now.Add(-maxAge))
}

// RunRetention prunes the store once, then every interval until ctx is
// done. A maxAge <= 0 disables retention and RunRetention returns at once.
// Prune failures are logged and retried on the next tick; the return value
// is always nil so it can run in the collector's errgroup.
func RunRetention(ctx context.Context, store *Store, maxAge, interval time.Duration) error {
	if maxAge <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	prune := func() {
		n, err := store.Prune(time.Now(), maxAge)
		if err != nil {
			log.Printf("archive: prune: %v", err)
			return
		}
		if n > 0 {
			log.Printf("archive: pruned %d entries older than %s", n, maxAge)
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			prune()
		}
	}
}
