package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/store"
	"github.com/nhle/kaizen/internal/testutil"
)

const userID = "user-1"

func createList(t *testing.T, s *store.SQLStore, name string, pos int) *model.TaskList {
	t.Helper()
	l, err := s.CreateList(context.Background(), model.TaskList{UserID: userID, Name: name, Position: pos})
	require.NoError(t, err)
	return l
}

func createTask(t *testing.T, s *store.SQLStore, listID, title string, pos int) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.Task{
		ListID: listID, UserID: userID, Title: title, Position: pos,
	})
	require.NoError(t, err)
	return task
}

func TestNewSQLStore_UnknownDriver(t *testing.T) {
	_, err := store.NewSQLStore("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestCreateList_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created := createList(t, s, "  Groceries  ", 3)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Groceries", created.Name)
	assert.Equal(t, 1, created.Version)

	got, err := s.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, 3, got.Position)
	assert.Equal(t, userID, got.UserID)
}

func TestCreateList_RejectsEmptyName(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.CreateList(context.Background(), model.TaskList{UserID: userID, Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestGetListByID_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetListByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestGetLists_OrderedByPosition(t *testing.T) {
	s := testutil.NewTestStore(t)

	createList(t, s, "c", 2)
	createList(t, s, "a", 0)
	createList(t, s, "b", 1)

	lists, err := s.GetLists(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "a", lists[0].Name)
	assert.Equal(t, "b", lists[1].Name)
	assert.Equal(t, "c", lists[2].Name)
}

func TestRenameList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Old", 0)

	require.NoError(t, s.RenameList(ctx, l.ID, "New"))
	got, err := s.GetListByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, 2, got.Version)

	err = s.RenameList(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestCreateTask_UnknownListIsNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.CreateTask(context.Background(), model.Task{ListID: "nope", UserID: userID, Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestGetTasks_Filters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)

	createTask(t, s, l.ID, "first", 0)
	done := createTask(t, s, l.ID, "second", 1)
	done.Completed = true
	require.NoError(t, s.UpdateTask(ctx, *done))

	past := time.Now().Add(-48 * time.Hour)
	overdue, err := s.CreateTask(ctx, model.Task{ListID: l.ID, UserID: userID, Title: "late", Position: 2, DueDate: &past})
	require.NoError(t, err)

	all, err := s.GetTasks(ctx, store.TaskFilter{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open := false
	active, err := s.GetTasks(ctx, store.TaskFilter{ListID: &l.ID, Completed: &open})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Title)

	late, err := s.GetTasks(ctx, store.TaskFilter{UserID: userID, Overdue: true})
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, overdue.ID, late[0].ID)
	assert.True(t, late[0].IsOverdue())
}

func TestUpdateTask_BumpsVersion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)
	task := createTask(t, s, l.ID, "draft", 0)

	desc := "details"
	task.Title = "final"
	task.Description = &desc
	require.NoError(t, s.UpdateTask(ctx, *task))

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "details", *got.Description)
	assert.Equal(t, 2, got.Version)
}

func TestListSiblings_ActiveOnly(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)

	a := createTask(t, s, l.ID, "a", 0)
	b := createTask(t, s, l.ID, "b", 1)
	b.Completed = true
	require.NoError(t, s.UpdateTask(ctx, *b))

	all, err := s.ListSiblings(ctx, ordering.Partition{Kind: ordering.KindTask, ContainerID: l.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListSiblings(ctx, ordering.Partition{Kind: ordering.KindTask, ContainerID: l.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestListSiblings_RequiresScope(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.ListSiblings(context.Background(), ordering.Partition{Kind: ordering.KindList})
	assert.True(t, errors.Is(err, ordering.ErrValidation))

	_, err = s.ListSiblings(context.Background(), ordering.Partition{Kind: ordering.KindExpense, OwnerID: userID})
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestUpdatePosition_VersionConflict(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)

	require.NoError(t, s.UpdatePosition(ctx, ordering.KindList, ordering.PositionUpdate{ID: l.ID, Position: 4, Version: 1}))

	err := s.UpdatePosition(ctx, ordering.KindList, ordering.PositionUpdate{ID: l.ID, Position: 5, Version: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ordering.ErrConflict))

	err = s.UpdatePosition(ctx, ordering.KindList, ordering.PositionUpdate{ID: "missing", Position: 5})
	assert.True(t, errors.Is(err, ordering.ErrNotFound))

	got, err := s.GetListByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Position)
}

func TestMoveRow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	src := createList(t, s, "Src", 0)
	dst := createList(t, s, "Dst", 1)
	task := createTask(t, s, src.ID, "t", 0)

	require.NoError(t, s.MoveRow(ctx, ordering.KindTask, task.ID, src.ID, dst.ID, 7, 0))
	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, got.ListID)
	assert.Equal(t, 7, got.Position)

	// The row no longer references src.
	err = s.MoveRow(ctx, ordering.KindTask, task.ID, src.ID, dst.ID, 0, 0)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))

	err = s.MoveRow(ctx, ordering.KindTask, task.ID, dst.ID, "no-such-list", 0, 0)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestDeleteRows_ThenContainer(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)
	createTask(t, s, l.ID, "a", 0)
	createTask(t, s, l.ID, "b", 1)

	n, err := s.DeleteRows(ctx, ordering.KindTask, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.DeleteRow(ctx, ordering.KindList, l.ID))
	err = s.DeleteRow(ctx, ordering.KindList, l.ID)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestDeleteRow_ContainerWithMembersFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)
	createTask(t, s, l.ID, "a", 0)

	require.Error(t, s.DeleteRow(ctx, ordering.KindList, l.ID))

	_, err := s.GetListByID(ctx, l.ID)
	assert.NoError(t, err)
}

func TestAtomic_RollsBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l := createList(t, s, "Work", 0)

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx ordering.Store) error {
		if err := tx.UpdatePosition(ctx, ordering.KindList, ordering.PositionUpdate{ID: l.ID, Position: 9}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetListByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Position)
}
