package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/happylearn/buddy/internal/tutor"
)

// historyRepo implements HistoryRepo with an upsert keyed by user id.
type historyRepo struct {
	db *sql.DB
}

func (r *historyRepo) Upsert(ctx context.Context, h ChatHistory) error {
	if h.UserID == "" {
		return fmt.Errorf("upsert chat history: user id is required")
	}
	msgs, err := json.Marshal(h.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	updated := h.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chat_history (user_id, grade, subject, messages, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			grade = excluded.grade,
			subject = excluded.subject,
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		h.UserID, h.Grade, h.Subject, string(msgs), updated.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert chat history: %w", err)
	}
	return nil
}

func (r *historyRepo) Get(ctx context.Context, userID string) (*ChatHistory, error) {
	var (
		h       ChatHistory
		msgs    string
		updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, grade, subject, messages, updated_at FROM chat_history WHERE user_id = ?`,
		userID,
	).Scan(&h.UserID, &h.Grade, &h.Subject, &msgs, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}

	var messages []tutor.Message
	if err := json.Unmarshal([]byte(msgs), &messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	h.Messages = messages
	h.UpdatedAt = time.UnixMilli(updated).UTC()
	return &h, nil
}

func (r *historyRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}
