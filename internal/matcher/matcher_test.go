package matcher

import "testing"

func TestCompileTwoFences(t *testing.T) {
	e, err := Compile("capital /Paris/ and /France/")
	if err != nil {
		t.Fatal(err)
	}
	if len(e.probes) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(e.probes))
	}
}

func TestCompileNoFencesWholeString(t *testing.T) {
	e, err := Compile("Paris")
	if err != nil {
		t.Fatal(err)
	}
	if len(e.probes) != 1 {
		t.Fatalf("expected 1 probe, got %d", len(e.probes))
	}
	if !e.Matches("The capital is PARIS, obviously.") {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestEscapedSlashInFence(t *testing.T) {
	e, err := Compile(`/km\/h/`)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Matches("speed limit 50km/h") {
		t.Fatalf("expected escaped-slash fence to match literal '/'")
	}
}

func TestConjunctionRequiresAllProbes(t *testing.T) {
	e, _ := Compile("/asphalte/ /Pitch/")
	if e.Matches("this mentions asphalte only") {
		t.Fatalf("expected no match")
	}
	if !e.Matches("le lac de Pitch est fait d'asphalte naturel") {
		t.Fatalf("expected match")
	}
}

func TestEmptyFence(t *testing.T) {
	e, err := Compile("//")
	if err != nil {
		t.Fatal(err)
	}
	if !e.Matches("anything matches an empty pattern") {
		t.Fatalf("empty fence should match everything")
	}
}
