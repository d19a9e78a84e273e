package igdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"gamelens/internal/logging"
	"gamelens/internal/services"
	"gamelens/internal/sources/apiclient"
)

const (
	tokenExpiryMargin = time.Minute
	lockRetryDelay    = 50 * time.Millisecond
)

// ErrCredentialsMissing reports an empty Twitch client id or secret.
var ErrCredentialsMissing = fmt.Errorf("%w: igdb requires twitch client credentials", services.ErrConfiguration)

// TokenConfig describes the Twitch client-credentials exchange.
type TokenConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// StatePath, when set, persists the token so concurrent and later
	// processes reuse it. Access is serialized with a file lock.
	StatePath  string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// TokenSource hands out app access tokens, refreshing them a minute before
// they expire.
type TokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	statePath    string
	http         *http.Client
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	current tokenState
}

type tokenState struct {
	AccessToken string    `json:"access_token"`
	ClientID    string    `json:"client_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (t tokenState) validFor(clientID string, now time.Time) bool {
	return t.AccessToken != "" && t.ClientID == clientID && now.Before(t.ExpiresAt)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NewTokenSource validates credentials and builds a TokenSource.
func NewTokenSource(cfg TokenConfig) (*TokenSource, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.ClientSecret)
	if clientID == "" || secret == "" {
		return nil, ErrCredentialsMissing
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, Name, "token", "token url is required", nil)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenSource{
		tokenURL:     strings.TrimSpace(cfg.TokenURL),
		clientID:     clientID,
		clientSecret: secret,
		statePath:    strings.TrimSpace(cfg.StatePath),
		http:         client,
		logger:       logging.NewComponentLogger(cfg.Logger, "igdb"),
		now:          now,
	}, nil
}

// ClientID returns the Twitch client id sent alongside the token.
func (s *TokenSource) ClientID() string { return s.clientID }

// Token returns a valid access token, reusing the in-memory or persisted
// token when it has not expired.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.validFor(s.clientID, s.now()) {
		return s.current.AccessToken, nil
	}
	if s.statePath == "" {
		return s.refresh(ctx)
	}

	lock := flock.New(s.statePath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "igdb token lock unavailable", "igdb_token_lock_failed",
			logging.String("lock", s.statePath+".lock"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "token fetched without sharing it with other processes"),
		)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return s.refresh(ctx)
	}
	defer func() { _ = lock.Unlock() }()

	if state, ok := s.readState(); ok && state.validFor(s.clientID, s.now()) {
		s.current = state
		return state.AccessToken, nil
	}
	token, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}
	if err := s.writeState(s.current); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "failed to persist igdb token", "igdb_token_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next run will request a new token"),
			logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
		)
	}
	return token, nil
}

// Invalidate drops the current token so the next call fetches a new one.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := s.current.AccessToken
	s.current = tokenState{}
	if s.statePath == "" || stale == "" {
		return
	}
	if state, ok := s.readState(); ok && state.AccessToken == stale {
		_ = os.Remove(s.statePath)
	}
}

// Authorize sets the Client-ID and bearer token headers on req.
func (s *TokenSource) Authorize(ctx context.Context, req *http.Request) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", s.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (s *TokenSource) refresh(ctx context.Context) (string, error) {
	endpoint, err := url.Parse(s.tokenURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, Name, "token", "parse token url", err)
	}
	params := endpoint.Query()
	params.Set("client_id", s.clientID)
	params.Set("client_secret", s.clientSecret)
	params.Set("grant_type", "client_credentials")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, Name, "token", "build token request", err)
	}
	req.Header.Set("Accept", "application/json")

	issuedAt := s.now()
	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: token: %w", Name, ctx.Err())
		}
		return "", services.Wrap(services.ErrSourceUnavailable, Name, "token", "token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusBadRequest {
			return "", services.Wrap(services.ErrConfiguration, Name, "token", "twitch rejected client credentials: "+strings.TrimSpace(string(snippet)), nil)
		}
		return "", apiclient.StatusError(Name, "token", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrTransient, Name, "token", "decode token response", err)
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrTransient, Name, "token", "token response missing access_token", nil)
	}

	s.current = tokenState{
		AccessToken: payload.AccessToken,
		ClientID:    s.clientID,
		ExpiresAt:   issuedAt.Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin),
	}
	s.logger.Debug("igdb token refreshed", logging.String("expires_at", s.current.ExpiresAt.Format(time.RFC3339)))
	return payload.AccessToken, nil
}

func (s *TokenSource) readState() (tokenState, bool) {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return tokenState{}, false
	}
	var state tokenState
	if err := json.Unmarshal(data, &state); err != nil {
		return tokenState{}, false
	}
	return state, true
}

func (s *TokenSource) writeState(state tokenState) error {
	if err := os.MkdirAll(filepath.Dir(s.statePath), 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode token state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.statePath), ".igdb-token-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write token state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod token state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close token state: %w", err)
	}
	if err := os.Rename(tmpName, s.statePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace token state: %w", err)
	}
	return nil
}
