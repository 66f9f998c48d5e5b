// Package rag holds the data types shared by every stage of the
// retrieval-augmented pipeline: messages, history entries, references,
// stage events, and the Context value threaded between stages.
package rag

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat-completion turn. Insertion order is significant.
type Message struct {
	Role    Role
	Content string
}

// Reference is a single search hit, numbered to match the
// [citation:position] tokens the LLM is expected to emit.
type Reference struct {
	Position int // 1-based; equals the insertion index in the references slice
	Title    string
	URL      string
	Snippet  string
}

// HistoryEntry is one completed round of the pipeline. Entries are
// appended only; never mutated after insertion.
type HistoryEntry struct {
	Inquiry     string
	Thought     string
	Keyphrases  string
	Topic       string
	References  []Reference
	Answer      string
	DurationMs  int64
	Stages      []StageEvent
}

// StageEvent records a single enter or leave of a pipeline stage.
// Events arrive in matched enter/leave pairs; pairing is by index, not
// by name, since a stage produces exactly two events per invocation.
type StageEvent struct {
	Name        string
	TimestampMs int64
	Fields      map[string]string // only populated on leave events
}

// Delegates is the set of optional side-effect hooks a front-end
// supplies to the pipeline. The core never assumes any hook is
// present; a nil field is simply not called.
type Delegates struct {
	// Enter is invoked when a stage begins.
	Enter func(stage string)
	// Leave is invoked when a stage completes, with the fields it
	// contributed to the context.
	Leave func(stage string, fields map[string]string)
	// Stream is invoked once per non-empty text delta produced while
	// the LLM answer is streaming.
	Stream func(delta string)
}

func (d Delegates) enter(stage string) {
	if d.Enter != nil {
		d.Enter(stage)
	}
}

func (d Delegates) leave(stage string, fields map[string]string) {
	if d.Leave != nil {
		d.Leave(stage, fields)
	}
}

func (d Delegates) stream(delta string) {
	if d.Stream != nil {
		d.Stream(delta)
	}
}

// EnterStage and LeaveStage let pipeline stages invoke delegate hooks
// without reaching into Delegates' unexported methods from another
// package — Context embeds Delegates and forwards through these.
func (c Context) EnterStage(stage string) { c.Delegates.enter(stage) }

// LeaveStage invokes the leave hook with the fields the stage produced.
func (c Context) LeaveStage(stage string, fields map[string]string) {
	c.Delegates.leave(stage, fields)
}

// StreamDelta invokes the stream hook with one text delta.
func (c Context) StreamDelta(delta string) { c.Delegates.stream(delta) }

// Context is the plain-value record passed between pipeline stages.
// A stage reads a Context and returns a logically new Context with
// additional fields filled; callers must not rely on in-place
// mutation of the History slice or any other reference field.
type Context struct {
	Inquiry string
	History []HistoryEntry
	Delegates

	// Accumulating fields, filled in by successive stages.
	Language   string
	Topic      string
	Thought    string
	Keyphrases string
	Observation string
	References []Reference
	Answer     string

	// Events collects every enter/leave event recorded so far in this
	// pipeline run, for stage-event review (C7).
	Events []StageEvent
}

// WithEvent returns a copy of c with ev appended to Events. Stages use
// this instead of mutating Events in place, keeping the "logically
// new context" contract.
func (c Context) WithEvent(ev StageEvent) Context {
	next := c
	next.Events = append(append([]StageEvent{}, c.Events...), ev)
	return next
}

// LastN returns up to n of the most recent history entries, oldest
// first, or fewer if history is shorter.
func LastN(history []HistoryEntry, n int) []HistoryEntry {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
