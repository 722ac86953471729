package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/kaizen/internal/model"
)

// ProfileStore is the persistence the sign-in flow needs.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, p model.Profile) (bool, error)
}

// CodeExchanger trades a PKCE authorization code for an access token.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// EnsureProfile creates a profile for sess unless one exists. The full name
// falls back to the local part of the email address.
func EnsureProfile(ctx context.Context, ps ProfileStore, sess model.Session) (bool, error) {
	name := strings.TrimSpace(sess.Name)
	if name == "" {
		name, _, _ = strings.Cut(sess.Email, "@")
	}
	return ps.EnsureProfile(ctx, model.Profile{ID: sess.UserID, Email: sess.Email, FullName: name})
}

// SignIn completes sign-in from a provider redirect.
type SignIn struct {
	Verifier  *Verifier
	Exchanger CodeExchanger
	Profiles  ProfileStore
}

// Complete parses rawURL, obtains and verifies the access token, and ensures
// the user has a profile. A failure to create the profile is logged and does
// not fail sign-in. The verified access token is returned with the session.
func (f *SignIn) Complete(ctx context.Context, rawURL string) (model.Session, string, error) {
	cb, err := ParseCallback(rawURL)
	if err != nil {
		return model.Session{}, "", err
	}

	token := cb.AccessToken
	if cb.Flow == FlowPKCE {
		if f.Exchanger == nil {
			return model.Session{}, "", fmt.Errorf("no code exchanger configured for pkce callback")
		}
		token, err = f.Exchanger.ExchangeCode(ctx, cb.Code)
		if err != nil {
			return model.Session{}, "", fmt.Errorf("exchanging code for session: %w", err)
		}
	}

	sess, err := f.Verifier.Verify(token)
	if err != nil {
		return model.Session{}, "", err
	}

	if f.Profiles != nil {
		if _, err := EnsureProfile(ctx, f.Profiles, sess); err != nil {
			log.Printf("ensuring profile for %s: %v", sess.UserID, err)
		}
	}
	return sess, token, nil
}

// HTTPExchanger exchanges codes against a provider token endpoint that
// accepts {"auth_code", "code_verifier"} and answers with {"access_token"}.
type HTTPExchanger struct {
	TokenURL     string
	APIKey       string
	CodeVerifier string
	client       *http.Client
}

// NewHTTPExchanger creates an HTTPExchanger with a 30 second timeout.
func NewHTTPExchanger(tokenURL, apiKey, codeVerifier string) *HTTPExchanger {
	return &HTTPExchanger{
		TokenURL:     tokenURL,
		APIKey:       apiKey,
		CodeVerifier: codeVerifier,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// ExchangeCode implements CodeExchanger.
func (e *HTTPExchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"auth_code":     code,
		"code_verifier": e.CodeVerifier,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.TokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("apikey", e.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending exchange request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading exchange response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decoding exchange response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}
	return out.AccessToken, nil
}
