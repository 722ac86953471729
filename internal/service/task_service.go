package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/store"
)

// NewTask is the input for creating a task. A nil Position appends the task
// after the list's open tasks.
type NewTask struct {
	ListID      string
	Title       string
	Description string
	DueDate     *time.Time
	Position    *int
}

// TaskService manages task lists and the tasks inside them.
type TaskService struct {
	store  store.Store
	engine *ordering.Engine
	opts   []ordering.Option
}

// NewTaskService creates a TaskService over s.
func NewTaskService(s store.Store, opts ...ordering.Option) *TaskService {
	ts := &TaskService{store: s, opts: opts}
	ts.engine = ts.engineFor(s)
	return ts
}

// engineFor builds an engine over st with the service's ordering options.
func (s *TaskService) engineFor(st ordering.Store) *ordering.Engine {
	return ordering.NewEngine(st, s.opts...)
}

func listPartition(sess model.Session) ordering.Partition {
	return ordering.Partition{Kind: ordering.KindList, OwnerID: sess.UserID}
}

func activeTasks(listID string) ordering.Partition {
	return ordering.Partition{Kind: ordering.KindTask, ContainerID: listID, ActiveOnly: true}
}

// ownList loads a list and hides lists that belong to other users.
func (s *TaskService) ownList(ctx context.Context, st store.Store, sess model.Session, id string) (*model.TaskList, error) {
	list, err := st.GetListByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.UserID != sess.UserID {
		return nil, ordering.NotFound(ordering.KindList, id)
	}
	return list, nil
}

func (s *TaskService) ownTask(ctx context.Context, sess model.Session, id string) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != sess.UserID {
		return nil, ordering.NotFound(ordering.KindTask, id)
	}
	return task, nil
}

// CreateList creates a list at the end of the user's lists.
func (s *TaskService) CreateList(ctx context.Context, sess model.Session, name string) (*model.TaskList, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ordering.Invalid("name", "list name must not be empty")
	}

	pos, err := s.engine.AppendPosition(ctx, listPartition(sess), nil)
	if err != nil {
		return nil, logFailure("creating list", err)
	}
	list, err := s.store.CreateList(ctx, model.TaskList{UserID: sess.UserID, Name: name, Position: pos})
	return list, logFailure("creating list", err)
}

// GetLists returns the user's lists in display order.
func (s *TaskService) GetLists(ctx context.Context, sess model.Session) ([]model.TaskList, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	lists, err := s.store.GetLists(ctx, sess.UserID)
	return lists, logFailure("listing lists", err)
}

// RenameList changes a list's name.
func (s *TaskService) RenameList(ctx context.Context, sess model.Session, id, name string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := s.ownList(ctx, s.store, sess, id); err != nil {
		return logFailure("renaming list", err)
	}
	return logFailure("renaming list", s.store.RenameList(ctx, id, name))
}

// DeleteList removes a list and all of its tasks. Deleting a list that is
// already gone succeeds.
func (s *TaskService) DeleteList(ctx context.Context, sess model.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := s.ownList(ctx, s.store, sess, id); err != nil {
		if errors.Is(err, ordering.ErrNotFound) {
			return nil
		}
		return logFailure("deleting list", err)
	}
	return logFailure("deleting list",
		s.engine.CascadeDelete(ctx, ordering.KindList, ordering.KindTask, id))
}

// ReorderLists rewrites list positions to match ids.
func (s *TaskService) ReorderLists(ctx context.Context, sess model.Session, ids []string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return logFailure("reordering lists", s.engine.Reorder(ctx, listPartition(sess), ids))
}

// CreateTask adds a task to one of the user's lists.
func (s *TaskService) CreateTask(ctx context.Context, sess model.Session, nt NewTask) (*model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	task, err := s.createTask(ctx, s.store, s.engine, sess, nt)
	return task, logFailure("creating task", err)
}

func (s *TaskService) createTask(ctx context.Context, st store.Store, eng *ordering.Engine, sess model.Session, nt NewTask) (*model.Task, error) {
	title := strings.TrimSpace(nt.Title)
	if title == "" {
		return nil, ordering.Invalid("title", "task title must not be empty")
	}
	if _, err := s.ownList(ctx, st, sess, nt.ListID); err != nil {
		return nil, err
	}

	pos, err := eng.AppendPosition(ctx, activeTasks(nt.ListID), nt.Position)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		ListID:   nt.ListID,
		UserID:   sess.UserID,
		Title:    title,
		Position: pos,
		DueDate:  nt.DueDate,
	}
	if desc := strings.TrimSpace(nt.Description); desc != "" {
		task.Description = &desc
	}
	return st.CreateTask(ctx, task)
}

// UpdateTask applies patch to a task. Re-opening a completed task moves it
// to the end of its list's open tasks.
func (s *TaskService) UpdateTask(ctx context.Context, sess model.Session, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	task, err := s.ownTask(ctx, sess, id)
	if err != nil {
		return nil, logFailure("updating task", err)
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		if desc := strings.TrimSpace(*patch.Description); desc != "" {
			task.Description = &desc
		} else {
			task.Description = nil
		}
	}
	if patch.ClearDue {
		task.DueDate = nil
	} else if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Completed != nil && *patch.Completed != task.Completed {
		if !*patch.Completed {
			pos, err := s.engine.AppendPosition(ctx, activeTasks(task.ListID), nil)
			if err != nil {
				return nil, logFailure("updating task", err)
			}
			task.Position = pos
		}
		task.Completed = *patch.Completed
	}

	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return nil, logFailure("updating task", err)
	}
	return s.store.GetTaskByID(ctx, id)
}

// ToggleTask flips a task's completed flag.
func (s *TaskService) ToggleTask(ctx context.Context, sess model.Session, id string) (*model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	task, err := s.ownTask(ctx, sess, id)
	if err != nil {
		return nil, logFailure("toggling task", err)
	}
	completed := !task.Completed
	return s.UpdateTask(ctx, sess, id, model.TaskPatch{Completed: &completed})
}

// DeleteTask removes a task. Sibling positions are left as they are.
func (s *TaskService) DeleteTask(ctx context.Context, sess model.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := s.ownTask(ctx, sess, id); err != nil {
		return logFailure("deleting task", err)
	}
	return logFailure("deleting task", s.store.DeleteRow(ctx, ordering.KindTask, id))
}

// GetTasks returns the tasks of one list, open tasks first.
func (s *TaskService) GetTasks(ctx context.Context, sess model.Session, listID string) ([]model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if _, err := s.ownList(ctx, s.store, sess, listID); err != nil {
		return nil, logFailure("listing tasks", err)
	}
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{UserID: sess.UserID, ListID: &listID})
	return tasks, logFailure("listing tasks", err)
}

// GetAllTasks returns every task the user owns.
func (s *TaskService) GetAllTasks(ctx context.Context, sess model.Session) ([]model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{UserID: sess.UserID})
	return tasks, logFailure("listing tasks", err)
}

// GetOverdueTasks returns open tasks whose due date has passed.
func (s *TaskService) GetOverdueTasks(ctx context.Context, sess model.Session) ([]model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	tasks, err := s.store.GetTasks(ctx, store.TaskFilter{UserID: sess.UserID, Overdue: true})
	return tasks, logFailure("listing overdue tasks", err)
}

// ReorderTasks rewrites the positions of every task in a list to match ids.
func (s *TaskService) ReorderTasks(ctx context.Context, sess model.Session, listID string, ids []string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := s.ownList(ctx, s.store, sess, listID); err != nil {
		return logFailure("reordering tasks", err)
	}
	p := ordering.Partition{Kind: ordering.KindTask, ContainerID: listID}
	return logFailure("reordering tasks", s.engine.Reorder(ctx, p, ids))
}

// MoveTask moves a task to the end of another list's open tasks.
func (s *TaskService) MoveTask(ctx context.Context, sess model.Session, taskID, targetListID string) (*model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	task, err := s.ownTask(ctx, sess, taskID)
	if err != nil {
		return nil, logFailure("moving task", err)
	}
	if _, err := s.ownList(ctx, s.store, sess, targetListID); err != nil {
		return nil, logFailure("moving task", err)
	}

	_, err = s.engine.Transfer(ctx, ordering.Transfer{
		Kind:    ordering.KindTask,
		ID:      taskID,
		OwnerID: sess.UserID,
		From:    task.ListID,
		To:      targetListID,
		Version: task.Version,
	})
	if err != nil {
		return nil, logFailure("moving task", err)
	}
	return s.store.GetTaskByID(ctx, taskID)
}

// CreateListWithTasks creates a list holding tasks in the given order. The
// tasks take positions 0..n-1 and the whole batch is written in one
// transaction.
func (s *TaskService) CreateListWithTasks(ctx context.Context, sess model.Session, name string, tasks []NewTask) (*model.TaskList, []model.Task, error) {
	if err := requireSession(sess); err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ordering.Invalid("name", "list name must not be empty")
	}
	for i, nt := range tasks {
		if strings.TrimSpace(nt.Title) == "" {
			return nil, nil, ordering.Invalid("tasks", "task %d has an empty title", i)
		}
	}

	var list *model.TaskList
	var created []model.Task
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		eng := s.engineFor(tx)
		pos, err := eng.AppendPosition(ctx, listPartition(sess), nil)
		if err != nil {
			return err
		}
		list, err = tx.CreateList(ctx, model.TaskList{UserID: sess.UserID, Name: name, Position: pos})
		if err != nil {
			return err
		}

		created = make([]model.Task, 0, len(tasks))
		for i, nt := range tasks {
			position := i
			nt.ListID = list.ID
			nt.Position = &position
			task, err := s.createTask(ctx, tx, eng, sess, nt)
			if err != nil {
				return err
			}
			created = append(created, *task)
		}
		return nil
	})
	if err != nil {
		return nil, nil, logFailure("creating list with tasks", err)
	}
	return list, created, nil
}
