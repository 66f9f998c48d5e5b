package pipeline

import (
	"context"
	"strconv"

	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

// Searcher is the interface the driver needs from the web-search
// client (C3), kept narrow so the pipeline package does not import
// internal/search directly and stays free to be exercised with a
// stub in tests.
type Searcher interface {
	Search(ctx context.Context, keyphrases string) ([]rag.Reference, error)
}

// Run composes the sequential left-to-right pipeline: reason → search
// → respond, each stage awaited in turn and receiving the previous
// stage's returned context. The driver itself holds no state beyond
// its two collaborators. A stage failure propagates and aborts the
// pipeline; already-recorded stage events remain in the returned
// context for post-mortem review via Review.
func Run(ctx context.Context, client llmclient.ChatClient, searcher Searcher, c rag.Context) (rag.Context, error) {
	c, err := Reason(ctx, client, c)
	if err != nil {
		return c, err
	}

	c, err = search(ctx, searcher, c)
	if err != nil {
		return c, err
	}

	c, err = Respond(ctx, client, c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// search wraps the Searcher call with the same enter/leave event
// pairing the other stages use, so C7's review sees three paired
// stages per run, not two.
func search(ctx context.Context, searcher Searcher, c rag.Context) (rag.Context, error) {
	c = c.WithEvent(rag.StageEvent{Name: "Search", TimestampMs: nowMs()})
	c.EnterStage("Search")

	refs, err := searcher.Search(ctx, c.Keyphrases)
	if err != nil {
		return c, err
	}
	c.References = refs

	leaveFields := map[string]string{"reference_count": strconv.Itoa(len(refs))}
	c = c.WithEvent(rag.StageEvent{Name: "Search", TimestampMs: nowMs(), Fields: leaveFields})
	c.LeaveStage("Search", leaveFields)
	return c, nil
}
