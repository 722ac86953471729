// Package auth turns an authentication provider's redirect into a verified
// user session and makes sure the user has a profile row.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoSession is returned when a callback carries neither an error, an
// authorization code nor an access token.
var ErrNoSession = errors.New("no session found in callback")

// Flow identifies how the provider delivered the session.
type Flow string

const (
	// FlowPKCE delivers an authorization code in the query string that must
	// be exchanged for a session.
	FlowPKCE Flow = "pkce"
	// FlowImplicit delivers the access token directly in the URL fragment.
	FlowImplicit Flow = "implicit"
)

// Callback is a parsed provider redirect.
type Callback struct {
	Flow         Flow
	Code         string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	// Type is the provider's event type, e.g. "signup" or "recovery".
	Type string
}

// CallbackError is the error a provider reported in the redirect.
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// ParseCallback extracts the session material from a redirect URL. Errors
// and tokens may appear in the query string or the fragment; an authorization
// code is only read from the query string.
func ParseCallback(rawURL string) (*Callback, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parsing callback url: %w", err)
	}

	query := u.Query()
	fragment, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return nil, fmt.Errorf("parsing callback fragment: %w", err)
	}

	first := func(key string) string {
		if v := query.Get(key); v != "" {
			return v
		}
		return fragment.Get(key)
	}

	if code := first("error"); code != "" {
		return nil, &CallbackError{Code: code, Description: first("error_description")}
	}

	if code := query.Get("code"); code != "" {
		return &Callback{Flow: FlowPKCE, Code: code}, nil
	}

	if token := fragment.Get("access_token"); token != "" {
		cb := &Callback{
			Flow:         FlowImplicit,
			AccessToken:  token,
			RefreshToken: fragment.Get("refresh_token"),
			TokenType:    fragment.Get("token_type"),
			Type:         fragment.Get("type"),
		}
		if exp := fragment.Get("expires_in"); exp != "" {
			n, err := strconv.Atoi(exp)
			if err != nil {
				return nil, fmt.Errorf("parsing expires_in %q: %w", exp, err)
			}
			cb.ExpiresIn = n
		}
		return cb, nil
	}

	return nil, ErrNoSession
}
