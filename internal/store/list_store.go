package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

const listColumns = "id, user_id, name, position, version, created_at, updated_at"

// CreateList inserts a new task list at list.Position and returns the stored row.
func (s *SQLStore) CreateList(ctx context.Context, list model.TaskList) (*model.TaskList, error) {
	list.Name = strings.TrimSpace(list.Name)
	if list.Name == "" {
		return nil, ordering.Invalid("name", "list name must not be empty")
	}
	if list.UserID == "" {
		return nil, ordering.Invalid("user_id", "list owner must not be empty")
	}
	if list.Position < 0 {
		return nil, ordering.Invalid("position", "must be >= 0, got %d", list.Position)
	}
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now
	list.Version = 1

	_, err := s.exec(ctx, `
		INSERT INTO task_lists (id, user_id, name, position, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.UserID, list.Name, list.Position, list.Version, list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return nil, ordering.Transient("creating task list", err)
	}
	return &list, nil
}

// GetListByID retrieves a single task list.
func (s *SQLStore) GetListByID(ctx context.Context, id string) (*model.TaskList, error) {
	var list model.TaskList
	err := s.lookup(ctx, &list, ordering.KindList, id,
		"SELECT "+listColumns+" FROM task_lists WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetLists returns the user's task lists in display order.
func (s *SQLStore) GetLists(ctx context.Context, userID string) ([]model.TaskList, error) {
	var lists []model.TaskList
	err := s.selectRows(ctx, &lists,
		"SELECT "+listColumns+" FROM task_lists WHERE user_id = ? ORDER BY position, created_at", userID)
	if err != nil {
		return nil, ordering.Transient("listing task lists", err)
	}
	return lists, nil
}

// RenameList changes a list's name.
func (s *SQLStore) RenameList(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ordering.Invalid("name", "list name must not be empty")
	}

	result, err := s.exec(ctx,
		"UPDATE task_lists SET name = ?, version = version + 1, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("renaming task list %s", id), err)
	}
	return mustAffect(result, ordering.KindList, id)
}
