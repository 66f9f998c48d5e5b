// Package matcher implements the answer matcher (C9): a compact
// "/regex/regex/" fence syntax compiled into a conjunction of
// case-insensitive regex probes, used by the file-based test runner
// to assert on streamed assistant answers.
//
// A short hand-written scanner, per the design note that this does
// not warrant a lexer framework.
package matcher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Expectation is a compiled set of probes; a target satisfies it iff
// every probe matches at least once.
type Expectation struct {
	probes []*regexp.Regexp
}

// Compile scans expected for "/…/" fences (backslash-escaped '/'
// inside a fence is honored) and compiles each fenced body into a
// case-insensitive regex. If no fences are found, the whole string is
// treated as one case-insensitive regex.
func Compile(expected string) (*Expectation, error) {
	fences := scanFences(expected)
	if len(fences) == 0 {
		fences = []string{expected}
	}
	probes := make([]*regexp.Regexp, 0, len(fences))
	for _, body := range fences {
		re, err := regexp.Compile("(?i)" + body)
		if err != nil {
			return nil, fmt.Errorf("compile fence %q: %w", body, err)
		}
		probes = append(probes, re)
	}
	return &Expectation{probes: probes}, nil
}

// scanFences extracts the bodies of every "/…/" fence in s, honoring
// "\/" as a literal escaped slash inside a fence.
func scanFences(s string) []string {
	var fences []string
	i := 0
	for i < len(s) {
		if s[i] != '/' {
			i++
			continue
		}
		// Found an opening fence; scan for its close.
		j := i + 1
		var body strings.Builder
		closed := false
		for j < len(s) {
			if s[j] == '\\' && j+1 < len(s) && s[j+1] == '/' {
				body.WriteByte('/')
				j += 2
				continue
			}
			if s[j] == '/' {
				closed = true
				break
			}
			body.WriteByte(s[j])
			j++
		}
		if closed {
			fences = append(fences, body.String())
			i = j + 1
			continue
		}
		// Unterminated fence: not a fence after all, keep scanning
		// past this slash.
		i++
	}
	return fences
}

// Matches reports whether target satisfies every probe.
func (e *Expectation) Matches(target string) bool {
	for _, p := range e.probes {
		if !p.MatchString(target) {
			return false
		}
	}
	return true
}

// span is a single matched region, used for descending-index
// highlighting.
type span struct {
	start, end int
}

// Highlight wraps every match span in target with ANSI highlight
// codes, processing spans sorted descending by start index so earlier
// insertions don't shift the indices of matches not yet processed.
func (e *Expectation) Highlight(target string) string {
	var spans []span
	for _, p := range e.probes {
		for _, loc := range p.FindAllStringIndex(target, -1) {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	out := target
	const ansiStart = "\x1b[1;33m"
	const ansiEnd = "\x1b[0m"
	for _, s := range spans {
		out = out[:s.start] + ansiStart + out[s.start:s.end] + ansiEnd + out[s.end:]
	}
	return out
}
