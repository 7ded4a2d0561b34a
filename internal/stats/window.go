package stats

// WindowDuration is the span, in seconds, of the sliding timestamp window.
const WindowDuration int64 = 3600

// Window is a FIFO of entry timestamps. After every Add, the newest and the
// oldest remaining timestamps are less than the window duration apart.
// Eviction follows the spread of the timestamps themselves, not wall-clock time.
type Window struct {
	duration int64
	times    []int64
}

// NewWindow creates a window of the given span in seconds.
func NewWindow(duration int64) *Window {
	if duration <= 0 {
		duration = WindowDuration
	}
	return &Window{duration: duration}
}

// Add appends t and evicts from the front while back - front >= duration.
func (w *Window) Add(t int64) {
	w.times = append(w.times, t)
	for len(w.times) > 0 && w.times[len(w.times)-1]-w.times[0] >= w.duration {
		w.times = w.times[1:]
	}
}

// Len returns the number of timestamps inside the window.
func (w *Window) Len() int { return len(w.times) }

// Values returns a copy of the timestamps, oldest first.
func (w *Window) Values() []int64 {
	out := make([]int64, len(w.times))
	copy(out, w.times)
	return out
}
