// Package chat persists and reloads conversation transcripts.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/todo-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/todo-tavern/backend/internal/store"
)

// ErrSessionRequired 表示缺少会话标识。
var ErrSessionRequired = errors.New("session id is required")

// trailingWindow is the number of trailing messages persisted per completed
// turn: the latest user/assistant pair.
const trailingWindow = 2

// Store is the slice of the record store transcript persistence needs.
type Store interface {
	UpsertSession(ctx context.Context, id string) error
	InsertMessage(ctx context.Context, sessionID, role, content string) error
	ListMessages(ctx context.Context, sessionID string) ([]store.MessageRow, error)
}

// Service encapsulates transcript persistence.
type Service struct {
	store Store
}

// NewService wires the persister to the durable store.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// SaveTranscript upserts the session and writes the trailing window of the
// supplied wire-form transcript. Assistant messages are stripped to their
// text parts before serialization; roles are stored uppercase.
//
// The window assumes a strict one-user-one-assistant cadence per request. A
// caller submitting more than two new messages since the last save loses the
// earlier ones; that cadence is part of this system's protocol.
func (s *Service) SaveTranscript(ctx context.Context, sessionID string, messages []chat.Message) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	if err := s.store.UpsertSession(ctx, sessionID); err != nil {
		return err
	}

	window := messages
	if len(window) > trailingWindow {
		window = window[len(window)-trailingWindow:]
	}

	for _, msg := range window {
		role, err := chat.NormalizeRole(msg.Role)
		if err != nil {
			return err
		}

		parts := msg.Parts
		if role == chat.RoleAssistant {
			// 助手消息只保留文本部分，工具调用不入库。
			parts = msg.TextParts()
		}
		if parts == nil {
			parts = []chat.Part{}
		}

		content, err := json.Marshal(parts)
		if err != nil {
			return fmt.Errorf("serialize parts: %w", err)
		}

		if err := s.store.InsertMessage(ctx, sessionID, strings.ToUpper(role), string(content)); err != nil {
			return err
		}
	}

	return nil
}

// LoadTranscript returns the persisted messages in conversation order and
// wire form. Rows that fail to decode are skipped rather than failing the
// whole reload.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := chat.FromStoredRow(row.ID, row.Role, row.Content)
		if err != nil {
			log.Printf("[chat] skipping undecodable message %s: %v", row.ID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
