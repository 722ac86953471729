package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/service"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	var listID string
	var overdue bool
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "Show tasks, optionally of one list or only overdue ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var tasks []model.Task
			switch {
			case overdue:
				tasks, err = e.tasks.GetOverdueTasks(cmd.Context(), e.sess)
			case listID != "":
				tasks, err = e.tasks.GetTasks(cmd.Context(), e.sess, listID)
			default:
				tasks, err = e.tasks.GetAllTasks(cmd.Context(), e.sess)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, tasks)
		},
	}
	lsCmd.Flags().StringVar(&listID, "list", "", "Only tasks of this list")
	lsCmd.Flags().BoolVar(&overdue, "overdue", false, "Only open tasks past their due date")
	cmd.AddCommand(lsCmd)

	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Mark a task done or open it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			task, err := e.tasks.ToggleTask(cmd.Context(), e.sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.tasks.DeleteTask(cmd.Context(), e.sess, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder <list-id> <task-id>...",
		Short: "Set the order of every task in a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.tasks.ReorderTasks(cmd.Context(), e.sess, args[0], args[1:]); err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := e.tasks.GetTasks(cmd.Context(), e.sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, tasks)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <task-id> <list-id>",
		Short: "Move a task to the end of another list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			task, err := e.tasks.MoveTask(cmd.Context(), e.sess, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	})

	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var description, due string
	var position int
	cmd := &cobra.Command{
		Use:   "add <list-id> <title>",
		Short: "Add a task to the end of a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			nt := service.NewTask{ListID: args[0], Title: args[1], Description: description}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return writeErr(cmd, err)
				}
				nt.DueDate = &d
			}
			if cmd.Flags().Changed("position") {
				nt.Position = &position
			}
			task, err := e.tasks.CreateTask(cmd.Context(), e.sess, nt)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&position, "position", 0, "Explicit position instead of appending")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change a task's title, description or due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var patch model.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return writeErr(cmd, err)
				}
				patch.DueDate = &d
			}
			patch.ClearDue = clearDue
			task, err := e.tasks.UpdateTask(cmd.Context(), e.sess, args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears it)")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	return cmd
}
