// Package google wraps the Google Calendar and Sheets APIs used for bookings.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the OAuth scopes needed for calendar events and ledger rows.
var Scopes = []string{calendar.CalendarScope, sheets.SpreadsheetsScope}

// ErrMissingToken is returned when no stored token exists. Run the
// authorize command to create one.
var ErrMissingToken = errors.New("google token file not found; run the authorize command first")

// LoadOAuthConfig reads the OAuth client secrets downloaded from the Google console.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	cfg, err := googleoauth.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return cfg, nil
}

// ReadToken loads a stored token.
func ReadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMissingToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return tok, nil
}

// WriteToken stores a token with owner-only permissions.
func WriteToken(path string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// NewTokenSource returns a token source backed by the stored token. Expired
// tokens are refreshed with the refresh token and the new token is written
// back to path.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, path string) (oauth2.TokenSource, error) {
	tok, err := ReadToken(path)
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("stored token expired and has no refresh token: %w", ErrMissingToken)
	}

	return &persistingSource{
		base: cfg.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}, nil
}

type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := WriteToken(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
