// Package credential keeps API keys and the session token in the system
// keyring. Environment variables override stored values.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "kaizen"

// Credential keys.
const (
	OpenAIKey     = "openai-api-key"
	PerplexityKey = "perplexity-api-key"
	SessionToken  = "session-token"
)

// envOverrides maps credential keys to the environment variables that take
// precedence over the keyring.
var envOverrides = map[string]string{
	OpenAIKey:     "OPENAI_API_KEY",
	PerplexityKey: "PERPLEXITY_API_KEY",
	SessionToken:  "KAIZEN_SESSION_TOKEN",
}

// ErrNotFound is returned when a credential is neither in the environment nor
// in the keyring.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/kaizen/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("kaizen-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store reads and writes credentials.
type Store struct {
	open   func() (keyring.Keyring, error)
	getenv func(string) string
}

// New returns a Store backed by the system keyring.
func New() *Store {
	return &Store{open: openKeyring, getenv: os.Getenv}
}

// NewWithKeyring returns a Store backed by ring.
func NewWithKeyring(ring keyring.Keyring) *Store {
	return &Store{
		open:   func() (keyring.Keyring, error) { return ring, nil },
		getenv: os.Getenv,
	}
}

// Get returns the credential for key, preferring its environment variable.
func (s *Store) Get(key string) (string, error) {
	if env, ok := envOverrides[key]; ok {
		if v := s.getenv(env); v != "" {
			return v, nil
		}
	}

	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the keyring.
func (s *Store) Set(key string, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "kaizen " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the keyring. Deleting a missing
// credential is not an error.
func (s *Store) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
