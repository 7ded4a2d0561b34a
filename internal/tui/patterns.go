package tui

import (
	"sort"
	"strings"
	"sync"

	"github.com/jaeyo/go-drain3/pkg/drain3"
)

// maxPatternClusters bounds drain3's cluster cache; least recently matched
// clusters are evicted first.
const maxPatternClusters = 1000

// Pattern is one message template and how many messages matched it.
type Pattern struct {
	Template   string
	Count      int
	Percentage float64
}

// PatternMiner groups entry messages into templates with drain3, where
// variable tokens such as ids and numbers collapse to "<*>".
type PatternMiner struct {
	mu    sync.Mutex
	drain *drain3.Drain
	total int
}

// NewPatternMiner returns a miner with drain3's default tree settings.
func NewPatternMiner() (*PatternMiner, error) {
	d, err := newDrain()
	if err != nil {
		return nil, err
	}
	return &PatternMiner{drain: d}, nil
}

func newDrain() (*drain3.Drain, error) {
	return drain3.NewDrain(
		drain3.WithDepth(4),
		drain3.WithSimTh(0.4),
		drain3.WithMaxChildren(100),
		drain3.WithMaxCluster(maxPatternClusters),
	)
}

// Add feeds one message. Blank messages are ignored.
func (p *PatternMiner) Add(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, _, err := p.drain.AddLogMessage(message); err != nil {
		return
	}
	p.total++
}

// TopPatterns returns up to limit patterns, most frequent first.
func (p *PatternMiner) TopPatterns(limit int) []Pattern {
	p.mu.Lock()
	defer p.mu.Unlock()

	clusters := p.drain.GetClusters()
	out := make([]Pattern, 0, len(clusters))
	var matched int64
	for _, c := range clusters {
		matched += c.Size
	}
	for _, c := range clusters {
		pct := 0.0
		if matched > 0 {
			pct = float64(c.Size) * 100 / float64(matched)
		}
		out = append(out, Pattern{Template: c.GetTemplate(), Count: int(c.Size), Percentage: pct})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Template < out[j].Template
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats returns the number of live patterns and of messages fed.
func (p *PatternMiner) Stats() (patterns, messages int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drain.IdToCluster.Len(), p.total
}

// Reset forgets every pattern, e.g. after the collector restarts.
func (p *PatternMiner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, err := newDrain(); err == nil {
		p.drain = d
	}
	p.total = 0
}
