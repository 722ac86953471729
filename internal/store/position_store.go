package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/kaizen/internal/ordering"
)

// rowFamily maps an ordering kind onto its table.
type rowFamily struct {
	table         string
	container     string // column referencing the container, empty for top-level rows
	containerKind ordering.Kind
	positioned    bool
	activeColumn  string // boolean column that ActiveOnly excludes when set
}

var families = map[ordering.Kind]rowFamily{
	ordering.KindList: {
		table:      "task_lists",
		positioned: true,
	},
	ordering.KindTask: {
		table:         "tasks",
		container:     "list_id",
		containerKind: ordering.KindList,
		positioned:    true,
		activeColumn:  "completed",
	},
	ordering.KindCategory: {
		table:      "expense_categories",
		positioned: true,
	},
	ordering.KindExpense: {
		table:         "expenses",
		container:     "category_id",
		containerKind: ordering.KindCategory,
	},
}

func familyOf(kind ordering.Kind) (rowFamily, error) {
	f, ok := families[kind]
	if !ok {
		return rowFamily{}, ordering.Invalid("kind", "unknown row kind %q", kind)
	}
	return f, nil
}

// ListSiblings returns the rows of a partition ordered by position, with
// creation time breaking ties.
func (s *SQLStore) ListSiblings(ctx context.Context, p ordering.Partition) ([]ordering.Sibling, error) {
	f, err := familyOf(p.Kind)
	if err != nil {
		return nil, err
	}
	if !f.positioned {
		return nil, ordering.Invalid("kind", "%s rows are not ordered", p.Kind)
	}

	var conditions []string
	var args []interface{}
	if p.OwnerID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, p.OwnerID)
	}
	if p.ContainerID != "" {
		if f.container == "" {
			return nil, ordering.Invalid("partition", "%s rows have no container", p.Kind)
		}
		conditions = append(conditions, f.container+" = ?")
		args = append(args, p.ContainerID)
	}
	if len(conditions) == 0 {
		return nil, ordering.Invalid("partition", "owner or container is required")
	}
	if p.ActiveOnly && f.activeColumn != "" {
		conditions = append(conditions, f.activeColumn+" = 0")
	}

	query := fmt.Sprintf(
		"SELECT id, position, version FROM %s WHERE %s ORDER BY position, created_at",
		f.table, strings.Join(conditions, " AND "),
	)

	var rows []struct {
		ID       string `db:"id"`
		Position int    `db:"position"`
		Version  int    `db:"version"`
	}
	if err := s.selectRows(ctx, &rows, query, args...); err != nil {
		return nil, ordering.Transient(fmt.Sprintf("listing %s siblings", p.Kind), err)
	}

	sibs := make([]ordering.Sibling, 0, len(rows))
	for _, r := range rows {
		sibs = append(sibs, ordering.Sibling{ID: r.ID, Position: r.Position, Version: r.Version})
	}
	return sibs, nil
}

// UpdatePosition writes a single position and bumps the row version.
func (s *SQLStore) UpdatePosition(ctx context.Context, kind ordering.Kind, u ordering.PositionUpdate) error {
	f, err := familyOf(kind)
	if err != nil {
		return err
	}
	if !f.positioned {
		return ordering.Invalid("kind", "%s rows are not ordered", kind)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET position = ?, version = version + 1, updated_at = ? WHERE id = ?", f.table)
	args := []interface{}{u.Position, time.Now().UTC(), u.ID}
	if u.Version > 0 {
		query += " AND version = ?"
		args = append(args, u.Version)
	}

	result, err := s.exec(ctx, query, args...)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("updating %s %s position", kind, u.ID), err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	return s.explainMiss(ctx, kind, f, u.ID, "", u.Version)
}

// MoveRow points a row at a new container with the given position. Rows
// without a position column ignore position. The update only matches while
// the row still references from.
func (s *SQLStore) MoveRow(ctx context.Context, kind ordering.Kind, id, from, to string, position, version int) error {
	f, err := familyOf(kind)
	if err != nil {
		return err
	}
	if f.container == "" {
		return ordering.Invalid("kind", "%s rows have no container", kind)
	}

	set := f.container + " = ?"
	args := []interface{}{to}
	if f.positioned {
		set += ", position = ?"
		args = append(args, position)
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s, version = version + 1, updated_at = ? WHERE id = ? AND %s = ?",
		f.table, set, f.container)
	args = append(args, time.Now().UTC(), id, from)
	if version > 0 {
		query += " AND version = ?"
		args = append(args, version)
	}

	result, err := s.exec(ctx, query, args...)
	if s.dialect.isForeignKeyViolation(err) {
		return ordering.NotFound(f.containerKind, to)
	}
	if err != nil {
		return ordering.Transient(fmt.Sprintf("moving %s %s", kind, id), err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	return s.explainMiss(ctx, kind, f, id, from, version)
}

// explainMiss distinguishes a missing row from a stale version after a
// conditional update matched nothing.
func (s *SQLStore) explainMiss(ctx context.Context, kind ordering.Kind, f rowFamily, id, from string, version int) error {
	var current struct {
		Version   int    `db:"version"`
		Container string `db:"container"`
	}

	cols := "version, '' AS container"
	if f.container != "" {
		cols = "version, " + f.container + " AS container"
	}
	err := s.get(ctx, &current, fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", cols, f.table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return ordering.NotFound(kind, id)
	}
	if err != nil {
		return ordering.Transient(fmt.Sprintf("reading %s %s", kind, id), err)
	}

	if from != "" && current.Container != from {
		return ordering.NotFound(kind, id)
	}
	if version > 0 && current.Version != version {
		return &ordering.ConflictError{Kind: kind, ID: id, Expected: version}
	}
	return ordering.NotFound(kind, id)
}

// DeleteRow removes a single row by id.
func (s *SQLStore) DeleteRow(ctx context.Context, kind ordering.Kind, id string) error {
	f, err := familyOf(kind)
	if err != nil {
		return err
	}

	result, err := s.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", f.table), id)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("deleting %s %s", kind, id), err)
	}
	return mustAffect(result, kind, id)
}

// DeleteRows removes every row of kind that references containerID.
func (s *SQLStore) DeleteRows(ctx context.Context, kind ordering.Kind, containerID string) (int64, error) {
	f, err := familyOf(kind)
	if err != nil {
		return 0, err
	}
	if f.container == "" {
		return 0, ordering.Invalid("kind", "%s rows have no container", kind)
	}

	result, err := s.exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", f.table, f.container), containerID)
	if err != nil {
		return 0, ordering.Transient(fmt.Sprintf("deleting %s rows of %s", kind, containerID), err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
