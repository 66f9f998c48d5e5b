package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

// Respond builds the reference-interpolated prompt and invokes client
// with the context's stream delegate as sink, so the answer reaches
// the caller incrementally. If no references were found, it proceeds
// with an empty message list rather than calling the LLM at all: the
// answer is simply empty, and the round is still recorded in history.
func Respond(ctx context.Context, client llmclient.ChatClient, c rag.Context) (rag.Context, error) {
	c = c.WithEvent(rag.StageEvent{Name: "Respond", TimestampMs: nowMs()})
	c.EnterStage("Respond")

	var answer string
	if len(c.References) == 0 {
		slog.InfoContext(ctx, "respond: no references, producing empty answer", "inquiry", c.Inquiry)
	} else {
		systemPrompt := buildRespondSystemPrompt(c.Language, c.References)
		messages := []rag.Message{
			{Role: rag.RoleSystem, Content: systemPrompt},
			{Role: rag.RoleUser, Content: c.Inquiry},
		}
		sink := func(delta string) { c.StreamDelta(delta) }
		var err error
		answer, err = client.Chat(ctx, messages, sink)
		if err != nil {
			return c, err
		}
	}

	c.Answer = answer

	leaveFields := map[string]string{
		"answer_chars":  strconv.Itoa(len(answer)),
		"reference_count": strconv.Itoa(len(c.References)),
	}
	c = c.WithEvent(rag.StageEvent{Name: "Respond", TimestampMs: nowMs(), Fields: leaveFields})
	c.LeaveStage("Respond", leaveFields)
	return c, nil
}
