package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/service"
)

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage expense categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show your categories, creating the defaults on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cats, err := e.expenses.GetCategories(cmd.Context(), e.sess)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, cats)
		},
	})

	var icon, color string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cat, err := e.expenses.CreateCategory(cmd.Context(), e.sess, service.NewCategory{Name: args[0], Icon: icon, Color: color})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, cat)
		},
	}
	addCmd.Flags().StringVar(&icon, "icon", "", "Icon name")
	addCmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #3b82f6")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category and all of its expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.expenses.DeleteCategory(cmd.Context(), e.sess, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0]})
		},
	})

	return cmd
}

// monthRange resolves --month into [from, to); an empty month means all time.
func monthRange(month string) (time.Time, time.Time, error) {
	if month == "" {
		return time.Time{}, time.Time{}, nil
	}
	return service.MonthBounds(month)
}

func newExpensesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "Record and review spending",
	}

	var month string
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "Show expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			from, to, err := monthRange(month)
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := e.expenses.GetExpenses(cmd.Context(), e.sess, from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, list)
		},
	}
	lsCmd.Flags().StringVar(&month, "month", "", "Only this month (YYYY-MM)")
	cmd.AddCommand(lsCmd)

	var description, date string
	addCmd := &cobra.Command{
		Use:   "add <category-id> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			amount, err := service.ParseAmount(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ne := service.NewExpense{CategoryID: args[0], Amount: amount, Description: description}
			if date != "" {
				if ne.Date, err = parseDate(date); err != nil {
					return writeErr(cmd, err)
				}
			}
			exp, err := e.expenses.AddExpense(cmd.Context(), e.sess, ne)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, exp)
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "What the money was spent on")
	addCmd.Flags().StringVar(&date, "date", "", "Date of the expense (YYYY-MM-DD, default today)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.expenses.DeleteExpense(cmd.Context(), e.sess, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <expense-id> <from-category-id> <to-category-id>",
		Short: "Move an expense to another category",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.expenses.MoveExpense(cmd.Context(), e.sess, args[0], args[1], args[2]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"id": args[0], "category_id": args[2]})
		},
	})

	var summaryMonth string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals per category, budget and recent expenses for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sum, err := e.expenses.Summary(cmd.Context(), e.sess, summaryMonth)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, sum)
		},
	}
	summaryCmd.Flags().StringVar(&summaryMonth, "month", currentMonth(), "Month (YYYY-MM)")
	cmd.AddCommand(summaryCmd)

	return cmd
}

func newBudgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Monthly spending budget",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [month]",
		Short: "Show the budget of a month (default this month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			month := currentMonth()
			if len(args) == 1 {
				month = args[0]
			}
			b, err := e.expenses.GetBudget(cmd.Context(), e.sess, month)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, b)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <month> <amount>",
		Short: "Set the budget of a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			amount, err := service.ParseAmount(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := e.expenses.SetBudget(cmd.Context(), e.sess, args[0], amount)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, b)
		},
	})

	return cmd
}

func newGoalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"goal"},
		Short:   "Savings goals",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show your goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			goals, err := e.expenses.GetGoals(cmd.Context(), e.sess)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, goals)
		},
	})

	var deadline, saved string
	addCmd := &cobra.Command{
		Use:   "add <title> <target-amount>",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ng := service.NewGoal{Title: args[0]}
			if ng.TargetAmount, err = service.ParseAmount(args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if saved != "" {
				if ng.CurrentAmount, err = service.ParseAmount(saved); err != nil {
					return writeErr(cmd, err)
				}
			}
			if deadline != "" {
				if ng.Deadline, err = parseDate(deadline); err != nil {
					return writeErr(cmd, err)
				}
			}
			g, err := e.expenses.AddGoal(cmd.Context(), e.sess, ng)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, g)
		},
	}
	addCmd.Flags().StringVar(&deadline, "deadline", "", "Target date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&saved, "saved", "", "Amount already saved")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "contribute <goal-id> <amount>",
		Short: "Add money to a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			amount, err := service.ParseAmount(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := e.expenses.Contribute(cmd.Context(), e.sess, args[0], amount)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, g)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.expenses.DeleteGoal(cmd.Context(), e.sess, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0]})
		},
	})

	return cmd
}
