package citation

import (
	"strings"
	"testing"
)

func rewriteWhole(t *testing.T, text string) string {
	t.Helper()
	var out strings.Builder
	r := New(&out)
	r.Push(text)
	r.Flush()
	return out.String()
}

func rewriteChunked(t *testing.T, text string, size int) string {
	t.Helper()
	var out strings.Builder
	r := New(&out)
	for i := 0; i < len(text); i += size {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		r.Push(text[i:end])
	}
	r.Flush()
	return out.String()
}

func TestDenseRenumbering(t *testing.T) {
	got := rewriteWhole(t, "foo[citation:3] bar[citation:1] baz[citation:3]")
	want := "foo[1] bar[2] baz[1]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIdempotentAcrossChunking(t *testing.T) {
	text := "The capital of France is Paris[citation:2]. Pitch Lake[citation:5] is in Trinidad[citation:2]."
	whole := rewriteWhole(t, text)
	for size := 1; size <= len(text); size++ {
		got := rewriteChunked(t, text, size)
		if got != whole {
			t.Fatalf("chunk size %d: got %q, want %q", size, got, whole)
		}
	}
}

func TestMultiDigitCitationsLeftLiteral(t *testing.T) {
	got := rewriteWhole(t, "see[citation:12] here")
	if got != "see[citation:12] here" {
		t.Fatalf("got %q, want literal passthrough", got)
	}
}

func TestFlushTrimsTrailingWhitespace(t *testing.T) {
	got := rewriteWhole(t, "answer text   \n")
	if got != "answer text" {
		t.Fatalf("got %q, want trimmed", got)
	}
}
