package codec

import "testing"

func TestConstructOmitsAbsentMarkers(t *testing.T) {
	got := Construct(Fields{Tool: "Google.", Topic: "space"})
	want := "TOOL: Google.\nTOPIC: space"
	if got != want {
		t.Fatalf("Construct() = %q, want %q", got, want)
	}
}

func TestParseLastOccurrence(t *testing.T) {
	f := Parse("TOPIC: a\nTOPIC: b")
	if v, _ := f.Get(Topic); v != "b" {
		t.Fatalf("topic = %q, want %q", v, "b")
	}
}

func TestParseMissingAnchorReturnsEmpty(t *testing.T) {
	f := Parse("TOOL: Google.\nLANGUAGE: English")
	if len(f) != 0 {
		t.Fatalf("expected empty Fields, got %v", f)
	}
}

func TestRoundTrip(t *testing.T) {
	in := Fields{
		Inquiry:     "Who is the CEO of Google?",
		Tool:        "Google.",
		Language:    "English",
		Thought:     "The user wants a fact.",
		Keyphrases:  "Google CEO",
		Observation: "Sundar Pichai is the CEO.",
		Topic:       "business",
	}
	out := Parse(Construct(in))
	for k, v := range in {
		if got, ok := out.Get(k); !ok || got != v {
			t.Errorf("key %s: got %q, ok=%v, want %q", k, got, ok, v)
		}
	}
}

func TestParseEchoedFewShotDoesNotShadowCompletion(t *testing.T) {
	// A few-shot example earlier in the transcript also uses the label
	// grammar; only the final (last) occurrence should be taken.
	text := "TOOL: Google.\nLANGUAGE: French\nTOPIC: geography\n" +
		"TOOL: Google.\nLANGUAGE: English\nKEYPHRASES: CEO Google\nTOPIC: business"
	f := Parse(text)
	if v, _ := f.Get(Language); v != "English" {
		t.Fatalf("language = %q, want English", v)
	}
	if v, _ := f.Get(Topic); v != "business" {
		t.Fatalf("topic = %q, want business", v)
	}
}

func TestParseFirstLineOnly(t *testing.T) {
	text := "THOUGHT: line one\nKEYPHRASES: kp\nTOPIC: t"
	f := Parse(text)
	if v, _ := f.Get(Thought); v != "line one" {
		t.Fatalf("thought = %q, want %q", v, "line one")
	}
}
