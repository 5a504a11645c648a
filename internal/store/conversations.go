package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/models"
)

type ConversationStore struct {
	db *database.DB
}

func NewConversationStore(db *database.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// GetOrCreateCurrent returns the user's most recently updated conversation,
// creating one lazily on first contact. The returned conversation's
// updated_at is bumped so it stays current.
func (s *ConversationStore) GetOrCreateCurrent(ctx context.Context, userID int64) (*models.Conversation, error) {
	now := time.Now().UTC()

	var conv models.Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC, id DESC LIMIT 1",
		userID,
	).Scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?, ?, ?)",
			userID, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		return &models.Conversation{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?", now, conv.ID,
	); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	conv.UpdatedAt = now
	return &conv, nil
}

func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID int64, role, content string) (*models.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		conversationID, role, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?", now, conversationID,
	); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// History returns every message in the conversation, oldest first. The order
// is total: ties on created_at break by message id.
func (s *ConversationStore) History(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
