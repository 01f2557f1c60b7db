package repository

import (
	"context"
	"database/sql"

	"github.com/readory/readory/internal/model"
)

// MessageRepo persists group messages.  Insert returns the full stored row
// because the realtime gateway broadcasts the persisted record, not the
// client-supplied payload.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Insert stores a message attributed to senderID and reads the row back so
// the caller gets the database-assigned id and timestamp.
func (r *MessageRepo) Insert(ctx context.Context, groupID, senderID uint64, content string) (model.Message, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO group_messages (group_id, sender_id, content) VALUES (?,?,?)",
		groupID, senderID, content)
	if err != nil {
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	var m model.Message
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,group_id,sender_id,content,created_at FROM group_messages WHERE id=? LIMIT 1",
		uint64(id)).Scan(&m.ID, &m.GroupID, &m.SenderID, &m.Content, &m.CreatedAt)
	return m, err
}

// ListByGroup returns up to limit messages for a group, oldest first.
func (r *MessageRepo) ListByGroup(ctx context.Context, groupID uint64, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,group_id,sender_id,content,created_at FROM group_messages WHERE group_id=? ORDER BY id ASC LIMIT ?",
		groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Message, 0, limit)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
