// Package citation implements the citation rewriter (C8): a
// stream-safe transducer that rewrites "[citation:N]" markers embedded
// in streamed assistant text into densely-renumbered "[k]" references,
// tolerating markers split across chunk boundaries.
//
// Grounded on the same "small state object fed through Push" shape the
// streaming chat decoder (internal/llmclient) uses; this one adds Flush
// to emit the tail it holds back.
package citation

import (
	"io"
	"regexp"
	"strconv"
	"strings"
)

// tokenWidth is the width of the widest supported token, "[citation:x]"
// (12 bytes); lookahead is three times that.
const (
	tokenWidth = len("[citation:x]")
	lookahead  = tokenWidth * 3
)

var citationPattern = regexp.MustCompile(`\[citation:(\d)\]`)

// Rewriter buffers streamed text and emits a rewritten, densely
// renumbered citation stream to an io.Writer, one Push call per
// network/stream chunk received.
type Rewriter struct {
	out    io.Writer
	buffer strings.Builder
	refs   []int // ordered, unique digits seen, in first-seen order
}

// New returns a Rewriter that writes rewritten output to out.
func New(out io.Writer) *Rewriter {
	return &Rewriter{out: out}
}

// Push appends chunk to the internal buffer, rewrites any complete
// "[citation:N]" markers found so far, and emits everything except the
// trailing lookahead window (which might still contain half of a
// marker split across this call and the next).
func (r *Rewriter) Push(chunk string) {
	buf := r.buffer.String()
	buf += chunk
	buf = r.rewriteAll(buf)

	if len(buf) > lookahead {
		emit := buf[:len(buf)-lookahead]
		r.out.Write([]byte(emit))
		buf = buf[len(buf)-lookahead:]
	}

	r.buffer.Reset()
	r.buffer.WriteString(buf)
}

// Flush emits the remaining buffer, right-trimmed, and resets state
// for reuse.
func (r *Rewriter) Flush() {
	remaining := strings.TrimRight(r.buffer.String(), " \t\r\n")
	if remaining != "" {
		r.out.Write([]byte(remaining))
	}
	r.buffer.Reset()
	r.refs = nil
}

// rewriteAll repeatedly replaces every "[citation:N]" occurrence in
// buf with its dense "[k]" form, assigning k by first-seen order of
// the distinct digit N across the whole rewrite session. Only
// single-digit citation numbers are recognized, matching the source
// behavior; two-digit numbers are left as literal text.
func (r *Rewriter) rewriteAll(buf string) string {
	for {
		loc := citationPattern.FindStringSubmatchIndex(buf)
		if loc == nil {
			return buf
		}
		digitStr := buf[loc[2]:loc[3]]
		digit, _ := strconv.Atoi(digitStr)

		k := r.indexOf(digit)
		if k < 0 {
			r.refs = append(r.refs, digit)
			k = len(r.refs) - 1
		}

		replacement := "[" + strconv.Itoa(k+1) + "]"
		buf = buf[:loc[0]] + replacement + buf[loc[1]:]
	}
}

func (r *Rewriter) indexOf(digit int) int {
	for i, d := range r.refs {
		if d == digit {
			return i
		}
	}
	return -1
}
