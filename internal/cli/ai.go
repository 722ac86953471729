package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/ai"
	"github.com/nhle/kaizen/internal/credential"
)

func aiOptions(app *App) []ai.Option {
	return []ai.Option{
		ai.WithMaxTokens(app.Config.AI.MaxTokens),
		ai.WithTimeout(time.Duration(app.Config.AI.TimeoutSec) * time.Second),
	}
}

// openAI returns the task-planning client. A missing key is not an error:
// the planner then answers with its fallback reply.
func openAI(app *App) *ai.Client {
	key, _ := credentials(app).Get(credential.OpenAIKey)
	return ai.NewOpenAI(key, app.Config.AI.OpenAIModel, aiOptions(app)...)
}

func perplexity(app *App) *ai.Client {
	key, _ := credentials(app).Get(credential.PerplexityKey)
	return ai.NewPerplexity(key, app.Config.AI.PerplexityModel, aiOptions(app)...)
}

func newAICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Assistant for planning tasks and reviewing spending",
	}
	cmd.AddCommand(newAIChatCmd(app))
	cmd.AddCommand(newAIAnalyzeCmd(app))
	cmd.AddCommand(newAITipCmd(app))
	return cmd
}

func newAIChatCmd(app *App) *cobra.Command {
	var create, interactive bool
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the assistant; it may propose a list of tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			planner := ai.NewTaskPlanner(openAI(app), e.tasks)

			if !interactive {
				if len(args) == 0 {
					return writeErr(cmd, fmt.Errorf("message required"))
				}
				reply := planner.Process(cmd.Context(), nil, args[0])
				out := map[string]any{"reply": reply}
				if create && reply.Action == ai.ActionCreateTasks {
					list, tasks, err := planner.Execute(cmd.Context(), e.sess, *reply.Data)
					if err != nil {
						return writeErr(cmd, err)
					}
					out["list"], out["tasks"] = list, tasks
				}
				return writeOut(cmd, app, out)
			}

			conv := ai.NewConversation(0)
			in := bufio.NewScanner(cmd.InOrStdin())
			w := cmd.OutOrStdout()
			for {
				fmt.Fprint(w, "> ")
				if !in.Scan() {
					return in.Err()
				}
				msg := strings.TrimSpace(in.Text())
				if msg == "" {
					continue
				}
				if msg == "/quit" {
					return nil
				}
				reply := planner.Process(cmd.Context(), conv.Messages(), msg)
				conv.Add(ai.RoleUser, msg)
				conv.Add(ai.RoleAssistant, reply.Message)
				fmt.Fprintln(w, reply.Message)

				if reply.Action != ai.ActionCreateTasks {
					continue
				}
				for i, t := range reply.Data.Tasks {
					fmt.Fprintf(w, "  %d. %s\n", i+1, t.Title)
				}
				fmt.Fprintf(w, "Create list %q? [y/N] ", reply.Data.ListName)
				if !in.Scan() {
					return in.Err()
				}
				if strings.EqualFold(strings.TrimSpace(in.Text()), "y") {
					list, tasks, err := planner.Execute(cmd.Context(), e.sess, *reply.Data)
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
						continue
					}
					fmt.Fprintf(w, "Created %q with %d tasks (%s)\n", list.Name, len(tasks), list.ID)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "Create the proposed list without asking")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Keep chatting until /quit")
	return cmd
}

func newAIAnalyzeCmd(app *App) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Written analysis of a month's spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sum, err := e.expenses.Summary(cmd.Context(), e.sess, month)
			if err != nil {
				return writeErr(cmd, err)
			}
			goals, err := e.expenses.GetGoals(cmd.Context(), e.sess)
			if err != nil {
				return writeErr(cmd, err)
			}
			analyst := ai.NewExpenseAnalyst(perplexity(app), app.Config.AI.PerplexityModel)
			return writeOut(cmd, app, analyst.Analyze(cmd.Context(), ai.RequestFromSummary(sum, goals)))
		},
	}
	cmd.Flags().StringVar(&month, "month", currentMonth(), "Month (YYYY-MM)")
	return cmd
}

func newAITipCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tip <category>",
		Short: "One short tip for saving on a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyst := ai.NewExpenseAnalyst(perplexity(app), app.Config.AI.PerplexityModel)
			return writeOut(cmd, app, map[string]string{"tip": analyst.Tip(cmd.Context(), args[0])})
		},
	}
}
