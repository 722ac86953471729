package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/kaizen/internal/auth"
	"github.com/nhle/kaizen/internal/credential"
)

func newLoginCmd(app *App) *cobra.Command {
	var tokenURL, apiKey, codeVerifier string
	cmd := &cobra.Command{
		Use:   "login <callback-url>",
		Short: "Complete sign-in from the provider's redirect URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := verifier(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			flow := &auth.SignIn{Verifier: v, Profiles: s}
			if tokenURL != "" {
				flow.Exchanger = auth.NewHTTPExchanger(tokenURL, apiKey, codeVerifier)
			}

			sess, token, err := flow.Complete(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := credentials(app).Set(credential.SessionToken, token); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, sess)
		},
	}
	cmd.Flags().StringVar(&tokenURL, "token-url", envOr("KAIZEN_AUTH_TOKEN_URL", ""), "Endpoint that exchanges a PKCE code for a session")
	cmd.Flags().StringVar(&apiKey, "api-key", envOr("KAIZEN_AUTH_API_KEY", ""), "Public API key sent to the token endpoint")
	cmd.Flags().StringVar(&codeVerifier, "code-verifier", "", "PKCE code verifier used when the flow started")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials(app).Delete(credential.SessionToken); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]bool{"signed_out": true})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := currentSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := s.GetProfile(cmd.Context(), sess.UserID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, p)
		},
	}
}
