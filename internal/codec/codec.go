// Package codec implements the labelled-field record exchanged with
// the LLM: a fixed set of "MARKER: value" lines that forces a
// free-text completion into a structured, parseable shape.
//
// Grounded on the teacher's field-per-line struct/validate style
// (pkg/config/config.go) generalized from a JSON record to a
// line-oriented one, since the wire format here is prose the LLM
// completes, not a document either side controls.
package codec

import "strings"

// Marker is one of the seven recognized labelled fields, in the fixed
// order Construct emits them.
type Marker string

const (
	Inquiry     Marker = "INQUIRY"
	Tool        Marker = "TOOL"
	Language    Marker = "LANGUAGE"
	Thought     Marker = "THOUGHT"
	Keyphrases  Marker = "KEYPHRASES"
	Observation Marker = "OBSERVATION"
	Topic       Marker = "TOPIC"
)

// order is the fixed serialization order; Topic is last, since Parse
// anchors on its last occurrence and reads its value to the end of text.
var order = []Marker{Inquiry, Tool, Language, Thought, Keyphrases, Observation, Topic}

// Fields is a case-insensitively keyed record of marker values.
type Fields map[Marker]string

// Get looks up a marker case-insensitively.
func (f Fields) Get(m Marker) (string, bool) {
	for k, v := range f {
		if strings.EqualFold(string(k), string(m)) {
			return v, true
		}
	}
	return "", false
}

// Construct serializes fields in fixed marker order, one "MARKER:
// value" line per non-empty value, omitting absent markers entirely.
func Construct(f Fields) string {
	var lines []string
	for _, m := range order {
		if v, ok := f.Get(m); ok && v != "" {
			lines = append(lines, string(m)+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

// Parse finds the last occurrence of "TOPIC:" as an anchor and walks
// backward through the remaining marker list, each time finding that
// marker's last occurrence in the text preceding the previously found
// marker. This "last occurrence" search is deliberate: the LLM is
// primed with a partial hint and completes from there, and earlier
// few-shot examples echoed back by the model must not shadow the
// actual completion.
//
// If TOPIC: is absent, Parse returns an empty Fields — the caller must
// re-attempt after appending "TOPIC: general knowledge." and
// re-parsing (this is not done here; it is a Reason-stage retry, not a
// codec concern).
//
// Faithful to the source behavior: lastIndexOf("TOPIC:") also matches
// a literal "TOPIC:" appearing inside the free prose of an earlier
// field's value. This is not corrected.
func Parse(text string) Fields {
	out := Fields{}

	topicIdx := lastIndex(text, string(Topic)+":")
	if topicIdx < 0 {
		return out
	}
	topicVal := strings.TrimSpace(text[topicIdx+len(string(Topic)+":"):])
	out[Topic] = topicVal

	// Walk the remaining markers from last to first, each confined to
	// the prefix before the previously located marker.
	remaining := order[:len(order)-1] // all but Topic, in forward order
	prefixEnd := topicIdx
	for i := len(remaining) - 1; i >= 0; i-- {
		m := remaining[i]
		needle := string(m) + ":"
		prefix := text[:prefixEnd]
		idx := lastIndex(prefix, needle)
		if idx < 0 {
			continue
		}
		rest := prefix[idx+len(needle):]
		value := firstLine(rest)
		out[m] = strings.TrimSpace(value)
		prefixEnd = idx
	}

	return out
}

func lastIndex(s, substr string) int {
	return strings.LastIndex(s, substr)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
