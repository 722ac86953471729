package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/service"
	"github.com/nhle/kaizen/internal/testutil"
)

var (
	alice = model.Session{UserID: "alice", Email: "alice@example.com"}
	bob   = model.Session{UserID: "bob", Email: "bob@example.com"}
)

func newTaskService(t *testing.T) *service.TaskService {
	t.Helper()
	return service.NewTaskService(testutil.NewTestStore(t))
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func positions(tasks []model.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Position)
	}
	return out
}

func TestCreateList_AppendsPositions(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	for i, name := range []string{"Inbox", "Work", "Home"} {
		l, err := svc.CreateList(ctx, alice, name)
		require.NoError(t, err)
		assert.Equal(t, i, l.Position)
	}

	// Positions are per owner.
	l, err := svc.CreateList(ctx, bob, "Bob's")
	require.NoError(t, err)
	assert.Equal(t, 0, l.Position)
}

func TestCreateList_Validation(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.CreateList(ctx, alice, "   ")
	assert.True(t, errors.Is(err, ordering.ErrValidation))

	_, err = svc.CreateList(ctx, model.Session{}, "x")
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestCreateTask_AppendsAfterOpenTasks(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Work")
	require.NoError(t, err)

	a, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "a"})
	require.NoError(t, err)
	b, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)

	_, err = svc.ToggleTask(ctx, alice, b.ID)
	require.NoError(t, err)

	// b is completed and no longer counts toward the open partition.
	c, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Position)
}

func TestCreateTask_ExplicitPosition(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Work")
	require.NoError(t, err)

	pos := 5
	task, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "x", Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, 5, task.Position)
}

func TestCreateTask_OtherUsersListIsNotFound(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Private")
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, bob, service.NewTask{ListID: l.ID, Title: "sneaky"})
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestToggleTask_ReopenMovesToEnd(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Work")
	require.NoError(t, err)

	a, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "a"})
	require.NoError(t, err)
	_, err = svc.ToggleTask(ctx, alice, a.ID)
	require.NoError(t, err)

	b, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Position)

	reopened, err := svc.ToggleTask(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Equal(t, 1, reopened.Position)
}

func TestReorderTasks_Contiguous(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Work")
	require.NoError(t, err)

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		task, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, svc.ReorderTasks(ctx, alice, l.ID, []string{ids[2], ids[0], ids[1]}))

	tasks, err := svc.GetTasks(ctx, alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, titles(tasks))
	assert.Equal(t, []int{0, 1, 2}, positions(tasks))

	err = svc.ReorderTasks(ctx, alice, l.ID, []string{ids[0], ids[1]})
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestReorderLists(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"one", "two", "three"} {
		l, err := svc.CreateList(ctx, alice, name)
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	require.NoError(t, svc.ReorderLists(ctx, alice, []string{ids[1], ids[2], ids[0]}))
	lists, err := svc.GetLists(ctx, alice)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "two", lists[0].Name)
	assert.Equal(t, "three", lists[1].Name)
	assert.Equal(t, "one", lists[2].Name)

	// Another user's list cannot be smuggled into the order.
	other, err := svc.CreateList(ctx, bob, "bob")
	require.NoError(t, err)
	err = svc.ReorderLists(ctx, alice, append(ids, other.ID))
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestMoveTask_AppendsToTargetAndLeavesGap(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	src, err := svc.CreateList(ctx, alice, "Src")
	require.NoError(t, err)
	dst, err := svc.CreateList(ctx, alice, "Dst")
	require.NoError(t, err)

	x, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: src.ID, Title: "x"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, service.NewTask{ListID: src.ID, Title: "y"})
	require.NoError(t, err)
	for _, title := range []string{"p", "q"} {
		_, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: dst.ID, Title: title})
		require.NoError(t, err)
	}

	moved, err := svc.MoveTask(ctx, alice, x.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.ListID)
	assert.Equal(t, 2, moved.Position)

	left, err := svc.GetTasks(ctx, alice, src.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, positions(left))

	_, err = svc.MoveTask(ctx, alice, x.ID, dst.ID)
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestDeleteList_CascadesAndIsIdempotent(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Doomed")
	require.NoError(t, err)
	keep, err := svc.CreateList(ctx, alice, "Keep")
	require.NoError(t, err)

	for _, title := range []string{"a", "b"} {
		_, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: title})
		require.NoError(t, err)
	}
	_, err = svc.CreateTask(ctx, alice, service.NewTask{ListID: keep.ID, Title: "survivor"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteList(ctx, alice, l.ID))
	require.NoError(t, svc.DeleteList(ctx, alice, l.ID))

	all, err := svc.GetAllTasks(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"survivor"}, titles(all))
}

func TestCreateListWithTasks(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	_, err := svc.CreateList(ctx, alice, "Existing")
	require.NoError(t, err)

	list, tasks, err := svc.CreateListWithTasks(ctx, alice, "Trip", []service.NewTask{
		{Title: "Book flights"},
		{Title: "Pack", Description: "light"},
		{Title: "Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Position)
	assert.Equal(t, []int{0, 1, 2}, positions(tasks))

	stored, err := svc.GetTasks(ctx, alice, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book flights", "Pack", "Go"}, titles(stored))
}

func TestCreateListWithTasks_EmptyTitleWritesNothing(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, _, err := svc.CreateListWithTasks(ctx, alice, "Trip", []service.NewTask{{Title: "ok"}, {Title: " "}})
	assert.True(t, errors.Is(err, ordering.ErrValidation))

	lists, err := svc.GetLists(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestUpdateTask_Patch(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	l, err := svc.CreateList(ctx, alice, "Work")
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, alice, service.NewTask{ListID: l.ID, Title: "draft", Description: "old"})
	require.NoError(t, err)

	title := "final"
	empty := ""
	updated, err := svc.UpdateTask(ctx, alice, task.ID, model.TaskPatch{Title: &title, Description: &empty})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Nil(t, updated.Description)

	_, err = svc.UpdateTask(ctx, bob, task.ID, model.TaskPatch{Title: &title})
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}
