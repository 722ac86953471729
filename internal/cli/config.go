package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/credential"
	"github.com/nhle/kaizen/internal/model"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.SaveConfig(app.ConfigPath, app.Config); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"path": app.ConfigPath})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <openai|perplexity> <value>",
		Short: "Store an API key in the system keyring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			switch args[0] {
			case "openai":
				key = credential.OpenAIKey
			case "perplexity":
				key = credential.PerplexityKey
			default:
				return writeErr(cmd, fmt.Errorf("unknown provider %q", args[0]))
			}
			if err := credentials(app).Set(key, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"stored": key})
		},
	})

	return cmd
}
