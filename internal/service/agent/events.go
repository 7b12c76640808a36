package agent

import "github.com/zhouzirui/todo-tavern/backend/internal/service/tools"

// 统一出站事件类型。
const (
	EventTextDelta      = "text-delta"
	EventToolCallStart  = "tool-call-start"
	EventToolCallResult = "tool-call-result"
	EventError          = "error"
	EventDone           = "done"
)

// 终止性错误类别，随 error 事件下发给调用方。
const (
	ErrorKindUpstreamModel    = "upstream_model"
	ErrorKindToolLoopExceeded = "tool_loop_exceeded"
)

// Event is one entry of the unified outbound stream. Fields beyond Type are
// populated per event kind.
type Event struct {
	Type         string        `json:"type"`
	Delta        string        `json:"delta,omitempty"`
	ToolName     string        `json:"toolName,omitempty"`
	InvocationID string        `json:"invocationId,omitempty"`
	Output       *tools.Output `json:"output,omitempty"`
	ErrorKind    string        `json:"errorKind,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// Sink receives events strictly in emission order. Implementations relay to
// the transport (SSE frame, websocket frame) and must not block indefinitely.
type Sink func(Event)
