package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"gamal/internal/rag"
)

// StageSummary is one paired enter/leave event, produced by Review.
type StageSummary struct {
	Name       string
	DurationMs int64
	Fields     map[string]string
}

// Review pairs the recorded events by adjacent index — event 2i is an
// enter, event 2i+1 is its leave — and returns one summary per
// completed stage, in pipeline order. An odd-length or otherwise
// malformed event list yields as many complete pairs as it can; a
// trailing unpaired enter (a stage that never left, e.g. because the
// pipeline aborted) is simply omitted.
func Review(events []rag.StageEvent) []StageSummary {
	var out []StageSummary
	for i := 0; i+1 < len(events); i += 2 {
		enter, leave := events[i], events[i+1]
		out = append(out, StageSummary{
			Name:       enter.Name,
			DurationMs: leave.TimestampMs - enter.TimestampMs,
			Fields:     leave.Fields,
		})
	}
	return out
}

// TotalDurationMs returns the wall-clock span of a full pipeline run,
// from the first stage's enter to the last stage's leave — the value
// spec.md §3's HistoryEntry.duration_ms records. Fewer than two events
// (no stage ever completed) yields zero.
func TotalDurationMs(events []rag.StageEvent) int64 {
	if len(events) < 2 {
		return 0
	}
	return events[len(events)-1].TimestampMs - events[0].TimestampMs
}

// PrettyPrint renders a Review result as a human-readable report,
// listing each stage with its name, duration, and leave-time fields in
// a stable (sorted) order for reproducible output.
func PrettyPrint(summaries []StageSummary) string {
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-10s %6dms", s.Name, s.DurationMs)
		if len(s.Fields) > 0 {
			keys := make([]string, 0, len(s.Fields))
			for k := range s.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s=%q", k, s.Fields[k])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
