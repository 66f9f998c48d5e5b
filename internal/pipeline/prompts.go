package pipeline

import (
	"fmt"
	"strings"

	"gamal/internal/codec"
	"gamal/internal/rag"
)

// reasonSystemPrompt names the assistant and mandates the six labelled
// fields as the sole output format for the Reason stage.
const reasonSystemPrompt = `You are Gamal, a research assistant that never answers directly.
For every inquiry you must think out loud using exactly these labelled fields, one per line, and nothing else:
TOOL: the tool you will use to research this (always "Google.")
LANGUAGE: the language of the inquiry
THOUGHT: a short reasoning about what the user wants
KEYPHRASES: a short web-search query that would find the answer
OBSERVATION: a one-sentence recollection of the prior answer, if this is a follow-up
TOPIC: a short classification of the subject matter`

// fewShotInquiry and fewShotFields are the one fixed few-shot example
// appended to the Reason prompt when no prior history exists.
const fewShotInquiry = "Pourquoi le lac Pitch est-il célèbre ?"

var fewShotFields = codec.Fields{
	codec.Tool:        "Google.",
	codec.Language:    "French",
	codec.Thought:     "The user is asking, in French, why Pitch Lake is well known.",
	codec.Keyphrases:  "Pitch Lake famous",
	codec.Observation: "Pitch Lake in Trinidad is famous for its natural asphalt deposits.",
	codec.Topic:       "geography",
}

// reasonKeepHistory bounds history replay to the last three entries.
const reasonKeepHistory = 3

// buildReasonMessages constructs the message list for the Reason
// stage's first attempt: system prompt, optional few-shot example,
// replayed history (oldest of the last three first), the inquiry, and
// a priming assistant turn the model completes directly.
func buildReasonMessages(inquiry string, history []rag.HistoryEntry) []rag.Message {
	var messages []rag.Message
	messages = append(messages, rag.Message{Role: rag.RoleSystem, Content: reasonSystemPrompt})

	recent := rag.LastN(history, reasonKeepHistory)
	if len(recent) == 0 {
		messages = append(messages, rag.Message{Role: rag.RoleUser, Content: fewShotInquiry})
		messages = append(messages, rag.Message{Role: rag.RoleAssistant, Content: codec.Construct(fewShotFields)})
	}

	for _, entry := range recent {
		messages = append(messages, rag.Message{Role: rag.RoleUser, Content: entry.Inquiry})
		assistantFields := codec.Fields{
			codec.Thought:     entry.Thought,
			codec.Keyphrases:  entry.Keyphrases,
			codec.Observation: entry.Answer,
			codec.Topic:       entry.Topic,
		}
		messages = append(messages, rag.Message{Role: rag.RoleAssistant, Content: codec.Construct(assistantFields)})
	}

	messages = append(messages, rag.Message{Role: rag.RoleUser, Content: inquiry})
	messages = append(messages, rag.Message{Role: rag.RoleAssistant, Content: "TOOL: Google.\nLANGUAGE: "})
	return messages
}

// rekeyphrasePriming replaces the last (priming) assistant message
// with a second-attempt hint when the first completion yielded no
// keyphrases.
func rekeyphrasePriming(messages []rag.Message, thought string) []rag.Message {
	out := make([]rag.Message, len(messages)-1)
	copy(out, messages[:len(messages)-1])
	hint := fmt.Sprintf("TOOL: Google.\nTHOUGHT: %s\nKEYPHRASES: ", thought)
	out = append(out, rag.Message{Role: rag.RoleAssistant, Content: hint})
	return out
}

// respondPromptTemplate templates the Respond stage's system prompt.
// {LANGUAGE} and {REFERENCES} are substituted before use.
const respondPromptTemplate = `You are Gamal, answering in {LANGUAGE}.
Cite every sentence you write with a [citation:x] marker pointing at one of the references below.
Prefer the three most relevant references. Keep your answer to at most three sentences unless explicitly asked for more.
Match the language of the inquiry.

References:
{REFERENCES}`

// buildRespondSystemPrompt fills respondPromptTemplate with the
// detected language and the numbered reference lines.
func buildRespondSystemPrompt(language string, refs []rag.Reference) string {
	var lines []string
	for _, r := range refs {
		lines = append(lines, fmt.Sprintf("[citation:%d] %s - %s", r.Position, r.Title, r.Snippet))
	}
	prompt := strings.ReplaceAll(respondPromptTemplate, "{LANGUAGE}", language)
	prompt = strings.ReplaceAll(prompt, "{REFERENCES}", strings.Join(lines, "\n"))
	return prompt
}
