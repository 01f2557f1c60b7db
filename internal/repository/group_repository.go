package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/readory/readory/internal/model"
)

// GroupRepo manages reading groups and their membership rows.  Membership
// is the authorization source of truth for the realtime gateway: a user may
// only join or post into a room when IsMember reports true.
type GroupRepo struct{ DB *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{DB: db} }

// Create inserts a group and an automatic membership row for its creator
// inside one transaction, so a group can never exist without at least one
// member.
func (r *GroupRepo) Create(ctx context.Context, name, bookTitle string, createdBy uint64) (model.GroupChat, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.GroupChat{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO group_chats (name, book_title, created_by) VALUES (?,?,?)",
		name, bookTitle, createdBy)
	if err != nil {
		return model.GroupChat{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.GroupChat{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO group_chat_members (group_id, user_id) VALUES (?,?)",
		uint64(id), createdBy); err != nil {
		return model.GroupChat{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.GroupChat{}, err
	}

	var g model.GroupChat
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,name,book_title,created_by,created_at FROM group_chats WHERE id=? LIMIT 1",
		uint64(id)).Scan(&g.ID, &g.Name, &g.BookTitle, &g.CreatedBy, &g.CreatedAt)
	return g, err
}

// GetByID fetches a group by id, mapping sql.ErrNoRows to ErrNotFound.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (model.GroupChat, error) {
	var g model.GroupChat
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,book_title,created_by,created_at FROM group_chats WHERE id=? LIMIT 1",
		id).Scan(&g.ID, &g.Name, &g.BookTitle, &g.CreatedBy, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return model.GroupChat{}, ErrNotFound
	}
	return g, err
}

// IsMember reports whether a membership row links the user to the group.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uint64) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM group_chat_members WHERE group_id=? AND user_id=? LIMIT 1",
		groupID, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddMember inserts a membership row.  A duplicate insert surfaces as
// ErrConflict; a missing group surfaces as ErrNotFound.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO group_chat_members (group_id, user_id) VALUES (?,?)",
		groupID, userID)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") {
			return ErrConflict
		}
		if strings.Contains(low, "1452") { // foreign key failure -> no such group
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RemoveMember deletes a membership row.  Removing a non-member is a no-op.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM group_chat_members WHERE group_id=? AND user_id=?",
		groupID, userID)
	return err
}
