package cli

import (
	"github.com/spf13/cobra"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list"},
		Short:   "Manage task lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show your lists in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			lists, err := e.tasks.GetLists(cmd.Context(), e.sess)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, lists)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a list at the end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := e.tasks.CreateList(cmd.Context(), e.sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, list)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.tasks.RenameList(cmd.Context(), e.sess, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"id": args[0], "name": args[1]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.tasks.DeleteList(cmd.Context(), e.sess, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder <list-id>...",
		Short: "Set the order of all your lists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.tasks.ReorderLists(cmd.Context(), e.sess, args); err != nil {
				return writeErr(cmd, err)
			}
			lists, err := e.tasks.GetLists(cmd.Context(), e.sess)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, lists)
		},
	})

	return cmd
}
