package chat

import "encoding/json"

// Part 类型标签
const (
	PartTypeText           = "text"
	PartTypeToolInvocation = "tool-invocation"
)

// Part is one fragment of a message's content. Text and tool-invocation
// variants share the struct; Type decides which fields are meaningful.
type Part struct {
	Type string `json:"type"`

	// text variant
	Text string `json:"text,omitempty"`

	// tool-invocation variant. Output stays empty until the invocation
	// resolves.
	ToolName     string          `json:"toolName,omitempty"`
	InvocationID string          `json:"invocationId,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// Message is one turn of a conversation in wire form, as exchanged with the
// client and persisted per session.
type Message struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextParts returns only the text parts, preserving order.
func (m Message) TextParts() []Part {
	out := make([]Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out = append(out, p)
		}
	}
	return out
}
