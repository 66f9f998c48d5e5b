package llmclient

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// chunkFrame is the shape of one "data: {...}" SSE frame from an
// OpenAI-compatible chat-completions stream.
type chunkFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// sseDecoder is a small stateful transducer over an SSE-style "data:"
// transcript. It is fed arbitrary byte chunks via Push and tolerates a
// chunk boundary landing anywhere at all, including mid-JSON-frame:
// any "data: " line whose payload fails to parse is assumed truncated
// and is carried forward whole to be retried once more bytes arrive.
//
// This is the one place in the module that deliberately avoids an SDK
// and parses the wire format by hand, per the stream split-safety
// requirement the hand-rolled client is built to satisfy.
type sseDecoder struct {
	carry     string
	answer    strings.Builder
	sink      func(delta string)
	seenFirst bool
	done      bool
}

func newSSEDecoder(sink func(delta string)) *sseDecoder {
	return &sseDecoder{sink: sink}
}

// Push feeds one more slice of bytes read from the response body. It
// returns true once the "data: [DONE]" terminator has been seen.
func (d *sseDecoder) Push(chunk []byte) bool {
	text := d.carry + string(chunk)
	d.carry = ""
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == len(lines)-1 && line != "" && strings.HasPrefix("data: ", line) {
			// The read ended inside a "data: " prefix: wait for the rest
			// of the line instead of dropping it as an unknown field.
			d.carry = line
			break
		}
		if d.handleLine(line) {
			continue
		}
		// Incomplete frame: keep this line, and anything that followed
		// it in this same read, as the carry-over for the next Push.
		d.carry = strings.Join(lines[i:], "\n")
		break
	}
	return d.done
}

// handleLine processes one already-newline-delimited line and reports
// whether it was fully handled (true) or should be carried forward as
// incomplete (false).
func (d *sseDecoder) handleLine(line string) bool {
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, ":") {
		// SSE comment line: drop.
		return true
	}
	if line == "data: [DONE]" {
		d.done = true
		return true
	}
	if !strings.HasPrefix(line, "data: ") {
		// Unrecognized SSE field: drop silently.
		return true
	}

	payload := line[len("data: "):]
	var frame chunkFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return false
	}
	if len(frame.Choices) == 0 {
		return true
	}
	delta := frame.Choices[0].Delta.Content
	if delta == "" {
		return true
	}
	if !d.seenFirst {
		delta = strings.TrimLeft(delta, " \t\r\n")
		d.seenFirst = true
		if delta == "" {
			return true
		}
	}
	d.answer.WriteString(delta)
	if d.sink != nil {
		d.sink(delta)
	}
	return true
}

// Answer returns the full concatenated text decoded so far.
func (d *sseDecoder) Answer() string {
	return d.answer.String()
}

// Done reports whether the [DONE] terminator has been seen.
func (d *sseDecoder) Done() bool {
	return d.done
}
