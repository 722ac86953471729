// Package cli is the kaizen command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/auth"
	"github.com/nhle/kaizen/internal/credential"
	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/service"
	"github.com/nhle/kaizen/internal/store"
)

// App holds state shared by all commands of one invocation.
type App struct {
	ConfigPath string
	PrettyJSON bool

	Config *model.AppConfig
	Store  store.Store
	Creds  *credential.Store

	// Getenv resolves the JWT secret; defaults to os.Getenv.
	Getenv func(string) string

	ownStore bool
}

// NewRootCmd builds the command tree for a fresh App.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kaizen",
		Short:        "Tasks, lists and expenses from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  kaizen lists create "Groceries"
  kaizen tasks add <list-id> "Buy milk" --due 2024-07-01
  kaizen expenses add <category-id> 12.50 --description lunch
  kaizen ai chat "help me plan a trip to Japan"
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.Config != nil {
			return nil
		}
		cfg, err := model.LoadConfig(app.ConfigPath)
		if err != nil {
			return err
		}
		app.Config = cfg
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if !app.ownStore || app.Store == nil {
			return nil
		}
		err := app.Store.Close()
		app.Store, app.ownStore = nil, false
		return err
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("KAIZEN_CONFIG", model.DefaultConfigPath()), "Path to config file")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newExpensesCmd(app))
	cmd.AddCommand(newBudgetCmd(app))
	cmd.AddCommand(newGoalsCmd(app))
	cmd.AddCommand(newAICmd(app))

	return cmd
}

// openStore opens the configured database once per invocation.
func openStore(app *App) (store.Store, error) {
	if app.Store != nil {
		return app.Store, nil
	}
	db := app.Config.Database
	if db.Driver == "sqlite" && db.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(db.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	s, err := store.NewSQLStore(db.Driver, db.DSN)
	if err != nil {
		return nil, err
	}
	app.Store, app.ownStore = s, true
	return s, nil
}

func credentials(app *App) *credential.Store {
	if app.Creds == nil {
		app.Creds = credential.New()
	}
	return app.Creds
}

func getenv(app *App, key string) string {
	if app.Getenv != nil {
		return app.Getenv(key)
	}
	return os.Getenv(key)
}

func verifier(app *App) (*auth.Verifier, error) {
	name := app.Config.Auth.JWTSecretEnv
	v, err := auth.NewVerifier(getenv(app, name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// currentSession verifies the stored access token.
func currentSession(app *App) (model.Session, error) {
	token, err := credentials(app).Get(credential.SessionToken)
	if errors.Is(err, credential.ErrNotFound) {
		return model.Session{}, errors.New("not signed in; run `kaizen login <callback-url>`")
	}
	if err != nil {
		return model.Session{}, err
	}
	v, err := verifier(app)
	if err != nil {
		return model.Session{}, err
	}
	return v.Verify(token)
}

func orderingOptions(app *App) []ordering.Option {
	return []ordering.Option{
		ordering.WithVersionCheck(app.Config.Ordering.VersionCheck),
		ordering.WithAtomicBatches(app.Config.Ordering.AtomicBatches),
	}
}

// env bundles what a data command needs.
type env struct {
	sess     model.Session
	tasks    *service.TaskService
	expenses *service.ExpenseService
}

func setup(app *App) (*env, error) {
	sess, err := currentSession(app)
	if err != nil {
		return nil, err
	}
	s, err := openStore(app)
	if err != nil {
		return nil, err
	}
	opts := orderingOptions(app)
	return &env{
		sess:     sess,
		tasks:    service.NewTaskService(s, opts...),
		expenses: service.NewExpenseService(s, opts...),
	}, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, ordering.Invalid("date", "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}
