package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ErrMalformedTranscript 表示转写内容不符合预期结构。
var ErrMalformedTranscript = errors.New("malformed transcript")

// 对话角色，存储层使用大写标签，线上格式使用小写。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NormalizeRole 将存储角色标签归一化为小写线上角色。
func NormalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrMalformedTranscript, role)
	}
}

// ToModelMessages converts a wire-form transcript into the model-facing
// message sequence. Pure: part order and role mapping are preserved, resolved
// tool invocations become an assistant tool call followed by its tool result
// message, and unknown roles are rejected.
func ToModelMessages(messages []Message) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(messages))

	for _, msg := range messages {
		role, err := NormalizeRole(msg.Role)
		if err != nil {
			return nil, err
		}

		switch role {
		case RoleUser:
			out = append(out, schema.UserMessage(joinTextParts(msg.Parts)))
		case RoleAssistant:
			assistant := schema.AssistantMessage(joinTextParts(msg.Parts), nil)
			toolResults := make([]*schema.Message, 0, 2)

			for _, p := range msg.Parts {
				if p.Type != PartTypeToolInvocation {
					continue
				}
				// 未解析完成的调用对模型没有意义，直接跳过。
				if len(p.Output) == 0 {
					continue
				}
				assistant.ToolCalls = append(assistant.ToolCalls, schema.ToolCall{
					ID:   p.InvocationID,
					Type: "function",
					Function: schema.FunctionCall{
						Name:      p.ToolName,
						Arguments: string(p.Input),
					},
				})
				toolResults = append(toolResults, schema.ToolMessage(string(p.Output), p.InvocationID))
			}

			out = append(out, assistant)
			out = append(out, toolResults...)
		}
	}

	return out, nil
}

// FromStoredRow decodes a persisted message row (uppercase role tag, parts
// serialized as JSON) back into wire form.
func FromStoredRow(id, role, content string) (Message, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return Message{}, err
	}

	var parts []Part
	if err := json.Unmarshal([]byte(content), &parts); err != nil {
		return Message{}, fmt.Errorf("%w: decode parts for message %s: %v", ErrMalformedTranscript, id, err)
	}

	return Message{ID: id, Role: normalized, Parts: parts}, nil
}

func joinTextParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type == PartTypeText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
