package pipeline

import (
	"context"
	"testing"

	"gamal/internal/rag"
)

type scriptedClient struct {
	responses []string
	calls     int
	sinks     []func(string)
}

func (c *scriptedClient) Chat(ctx context.Context, messages []rag.Message, sink func(delta string)) (string, error) {
	resp := c.responses[c.calls]
	c.calls++
	c.sinks = append(c.sinks, sink)
	if sink != nil {
		sink(resp)
	}
	return resp, nil
}

func (c *scriptedClient) IsTransientError(err error) bool { return false }

type fakeSearcher struct {
	refs []rag.Reference
}

func (s *fakeSearcher) Search(ctx context.Context, keyphrases string) ([]rag.Reference, error) {
	return s.refs, nil
}

func TestStagePairingIsEvenAndOrdered(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"French\nTHOUGHT: why is it famous\nKEYPHRASES: Pitch Lake famous\nOBSERVATION: \nTOPIC: geography",
		"Pitch Lake is famous for asphalte.[citation:1]",
	}}
	searcher := &fakeSearcher{refs: []rag.Reference{{Position: 1, Title: "Pitch Lake", URL: "u", Snippet: "asphalte lake"}}}

	c := rag.Context{Inquiry: "Pourquoi le lac Pitch est-il célèbre ?"}
	c, err := Run(context.Background(), client, searcher, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.Events)%2 != 0 {
		t.Fatalf("expected an even number of events, got %d", len(c.Events))
	}
	summaries := Review(c.Events)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 stage summaries, got %d", len(summaries))
	}
	wantOrder := []string{"Reason", "Search", "Respond"}
	for i, s := range summaries {
		if s.Name != wantOrder[i] {
			t.Errorf("stage %d: name = %q, want %q", i, s.Name, wantOrder[i])
		}
		if s.DurationMs < 0 {
			t.Errorf("stage %d: negative duration", i)
		}
	}
}

func TestReasonRetriesOnEmptyKeyphrases(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"English\nTHOUGHT: unclear\nTOPIC: unknown", // no keyphrases
		"Google CEO",                                 // retry completion after "KEYPHRASES: " hint
	}}

	c := rag.Context{Inquiry: "Who is the CEO of Google?"}
	c, err := Reason(context.Background(), client, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls (initial + retry), got %d", client.calls)
	}
	if c.Keyphrases != "Google CEO" {
		t.Fatalf("keyphrases = %q, want %q", c.Keyphrases, "Google CEO")
	}
}

func TestRespondDegradesOnEmptyReferences(t *testing.T) {
	client := &scriptedClient{responses: []string{"should not be called"}}
	c := rag.Context{Inquiry: "anything", References: nil}
	c, err := Respond(context.Background(), client, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Answer != "" {
		t.Fatalf("expected empty answer, got %q", c.Answer)
	}
	if client.calls != 0 {
		t.Fatalf("expected no LLM call when references are empty, got %d calls", client.calls)
	}
}
