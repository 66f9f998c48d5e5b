// Package pipeline implements the Reason (C4), Respond (C5), driver
// (C6) and stage-event review (C7) components: the sequential
// reasoning pipeline that turns an inquiry into a cited, streamed
// answer.
package pipeline

import (
	"context"
	"time"

	"gamal/internal/codec"
	"gamal/internal/llmclient"
	"gamal/internal/rag"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// Reason builds the few-shot prompt, invokes client non-streaming,
// decodes the completion with the labelled-field codec, and retries
// once if no keyphrases were extracted.
func Reason(ctx context.Context, client llmclient.ChatClient, c rag.Context) (rag.Context, error) {
	c = c.WithEvent(rag.StageEvent{Name: "Reason", TimestampMs: nowMs()})
	c.EnterStage("Reason")

	messages := buildReasonMessages(c.Inquiry, c.History)
	completion, err := client.Chat(ctx, messages, nil)
	if err != nil {
		return c, err
	}

	hint := messages[len(messages)-1].Content
	fields := parseWithAnchorFallback(hint + completion)

	keyphrases, _ := fields.Get(codec.Keyphrases)
	if keyphrases == "" {
		thought, _ := fields.Get(codec.Thought)
		retryMessages := rekeyphrasePriming(messages, thought)
		retryCompletion, retryErr := client.Chat(ctx, retryMessages, nil)
		if retryErr == nil {
			retryHint := retryMessages[len(retryMessages)-1].Content
			retryFields := parseWithAnchorFallback(retryHint + retryCompletion)
			for k, v := range retryFields {
				fields[k] = v
			}
		}
		// If the retry also failed or yielded nothing, keyphrases
		// remains empty and Search proceeds with an empty query — not
		// an error (spec.md's ExtractionEmpty is recoverable).
	}

	language, _ := fields.Get(codec.Language)
	topic, _ := fields.Get(codec.Topic)
	thought, _ := fields.Get(codec.Thought)
	keyphrases, _ = fields.Get(codec.Keyphrases)
	observation, _ := fields.Get(codec.Observation)

	c.Language = language
	c.Topic = topic
	c.Thought = thought
	c.Keyphrases = keyphrases
	c.Observation = observation

	leaveFields := map[string]string{
		"language":   language,
		"topic":      topic,
		"thought":    thought,
		"keyphrases": keyphrases,
		"observation": observation,
	}
	c = c.WithEvent(rag.StageEvent{Name: "Reason", TimestampMs: nowMs(), Fields: leaveFields})
	c.LeaveStage("Reason", leaveFields)
	return c, nil
}

// parseWithAnchorFallback parses text via the codec, and if the TOPIC
// anchor was absent, synthesizes "TOPIC: general knowledge." and
// re-parses once, per the codec's documented fallback contract.
func parseWithAnchorFallback(text string) codec.Fields {
	fields := codec.Parse(text)
	if len(fields) == 0 {
		fields = codec.Parse(text + "\nTOPIC: general knowledge.")
	}
	return fields
}
