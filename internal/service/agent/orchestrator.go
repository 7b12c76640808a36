// Package agent drives one streaming chat turn: it relays model text deltas
// to the caller, dispatches tool calls against the registry in the order the
// model emitted them, feeds tool outputs back into the model and assembles
// the final assistant message for persistence.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/todo-tavern/backend/internal/service/tools"
)

// ErrToolLoopExceeded 表示模型重入工具的轮次超过配置上限。
var ErrToolLoopExceeded = errors.New("tool call loop exceeded configured limit")

// ModelSource is the consumed slice of the external model: one call opens
// one ordered event stream for the supplied transcript.
type ModelSource interface {
	Stream(ctx context.Context, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

// ToolDispatcher validates and executes a single tool invocation.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, input json.RawMessage) tools.Output
}

// Orchestrator is request-scoped: one instance per inbound chat request,
// never shared. Its state machine is single-threaded; suspension happens
// only while awaiting the next model chunk or a tool's store operation.
type Orchestrator struct {
	source        ModelSource
	registry      ToolDispatcher
	maxToolRounds int
}

// New builds an orchestrator. maxToolRounds bounds model re-entry after tool
// execution.
func New(source ModelSource, registry ToolDispatcher, maxToolRounds int) *Orchestrator {
	return &Orchestrator{
		source:        source,
		registry:      registry,
		maxToolRounds: maxToolRounds,
	}
}

// Run executes the full generation loop for one wire-form transcript and
// emits the outbound event stream through sink. On success it returns the
// assembled assistant message, parts in emission order with tool outputs
// attached. A malformed transcript fails before the model is contacted and
// emits nothing.
func (o *Orchestrator) Run(ctx context.Context, transcript []chat.Message, sink Sink) (chat.Message, error) {
	modelMsgs, err := chat.ToModelMessages(transcript)
	if err != nil {
		return chat.Message{}, err
	}

	assistant := chat.Message{ID: uuid.NewString(), Role: chat.RoleAssistant}

	rounds := 0
	for {
		turn, err := o.streamTurn(ctx, modelMsgs, sink)
		if err != nil {
			if ctx.Err() != nil {
				// 调用方已断开，停止生成，不再下发事件。
				return chat.Message{}, ctx.Err()
			}
			sink(Event{Type: EventError, ErrorKind: ErrorKindUpstreamModel, Message: err.Error()})
			return chat.Message{}, fmt.Errorf("model stream failed: %w", err)
		}

		modelMsgs = append(modelMsgs, turn)
		if turn.Content != "" {
			assistant.Parts = append(assistant.Parts, chat.TextPart(turn.Content))
		}

		if len(turn.ToolCalls) == 0 {
			sink(Event{Type: EventDone})
			return assistant, nil
		}

		if rounds >= o.maxToolRounds {
			sink(Event{
				Type:      EventError,
				ErrorKind: ErrorKindToolLoopExceeded,
				Message:   fmt.Sprintf("exceeded %d tool rounds in one request", o.maxToolRounds),
			})
			return chat.Message{}, ErrToolLoopExceeded
		}
		rounds++

		// 同一轮内的多个工具调用按模型下发顺序依次执行。
		for _, call := range turn.ToolCalls {
			invocationID := call.ID
			if invocationID == "" {
				invocationID = uuid.NewString()
			}

			sink(Event{Type: EventToolCallStart, ToolName: call.Function.Name, InvocationID: invocationID})

			output := o.registry.Dispatch(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
			payload, err := json.Marshal(output)
			if err != nil {
				// Output is a plain value; this only fires on a programming error.
				payload = []byte(`{"kind":"error","message":"encode tool output failed"}`)
				log.Printf("[agent] encode output of %s: %v", call.Function.Name, err)
			}

			result := output
			sink(Event{Type: EventToolCallResult, InvocationID: invocationID, Output: &result})

			modelMsgs = append(modelMsgs, schema.ToolMessage(string(payload), invocationID))
			assistant.Parts = append(assistant.Parts, chat.Part{
				Type:         chat.PartTypeToolInvocation,
				ToolName:     call.Function.Name,
				InvocationID: invocationID,
				Input:        json.RawMessage(call.Function.Arguments),
				Output:       payload,
			})
		}

		log.Printf("[agent] round %d dispatched %d tool call(s)", rounds, len(turn.ToolCalls))
	}
}

// streamTurn consumes one model turn, relaying text deltas as they arrive,
// and returns the concatenated message with any tool calls resolved from the
// chunk sequence.
func (o *Orchestrator) streamTurn(ctx context.Context, messages []*schema.Message, sink Sink) (*schema.Message, error) {
	stream, err := o.source.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			sink(Event{Type: EventTextDelta, Delta: chunk.Content})
		}
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.ConcatMessages(chunks)
}
