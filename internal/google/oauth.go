package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoToken is returned when the token file does not exist.
var ErrNoToken = errors.New("no Google OAuth token found")

// TokenFile reads and writes an oauth2.Token as JSON on disk.
type TokenFile struct {
	mu   sync.Mutex
	path string
}

// NewTokenFile returns a TokenFile backed by path.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Path returns the backing file path.
func (f *TokenFile) Path() string {
	return f.path
}

// Load reads the token. A missing file yields ErrNoToken.
func (f *TokenFile) Load() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoToken, f.path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", f.path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", f.path)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (f *TokenFile) Save(tok *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadConfig reads an OAuth client credentials file downloaded from the
// Google Cloud console.
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return conf, nil
}

// persistingTokenSource writes every newly minted token back to disk so the
// next batch run starts with a fresh access token.
type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	file *TokenFile
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.file.Save(tok); err != nil {
			slog.Warn("failed to persist refreshed Google token", slog.String("error", err.Error()))
		}
	}
	return tok, nil
}

// TokenSource returns a token source that refreshes with conf and persists
// refreshed tokens to file.
func TokenSource(ctx context.Context, conf *oauth2.Config, file *TokenFile) (oauth2.TokenSource, error) {
	tok, err := file.Load()
	if err != nil {
		return nil, err
	}
	src := &persistingTokenSource{
		base: conf.TokenSource(ctx, tok),
		file: file,
		last: tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// HTTPClient returns an authenticated client for the Google APIs using the
// credentials and token files provisioned out of band. The client is pinned
// to HTTP/1.1 to avoid HTTP/2 stream resets from the Gmail frontends.
func HTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	conf, err := LoadConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	ts, err := TokenSource(ctx, conf, NewTokenFile(tokenFile))
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}
	return client, nil
}
