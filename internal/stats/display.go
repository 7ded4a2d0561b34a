package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// Format renders a snapshot as the multi-line statistics block printed by
// the collector.
func Format(s model.Snapshot) string {
	var b strings.Builder
	b.WriteString("Message statistic:\n")
	fmt.Fprintf(&b, "count: %d\n", s.TotalCount)
	for _, l := range model.Levels {
		fmt.Fprintf(&b, "level %s: %d\n", l, s.CountFor(l))
	}
	fmt.Fprintf(&b, "last hour: %d\n", s.WindowCount)
	fmt.Fprintf(&b, "max length: %d\n", s.MaxLength)
	if s.MinLength == MinLengthUnset {
		b.WriteString("min length: -\n")
	} else {
		fmt.Fprintf(&b, "min length: %d\n", s.MinLength)
	}
	fmt.Fprintf(&b, "average length: %d", s.AvgLength)
	return b.String()
}

// Display writes Format(s) followed by a newline.
func Display(w io.Writer, s model.Snapshot) error {
	_, err := io.WriteString(w, Format(s)+"\n")
	return err
}
