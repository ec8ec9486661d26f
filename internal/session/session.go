package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/storage"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

// Durable keys
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyTokenExpiry  = "tokenExpiry"
	KeyRoles        = "roles"
	KeyPersist      = "persist"
	KeyLocale       = "locale"
)

const storeTimeout = 5 * time.Second

// SupportedLocales are the UI languages the backend localizes messages for
var SupportedLocales = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
	language.Arabic,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// Manager holds the current session tokens and locale.
// Tokens always live in memory; they are written to the durable store only
// while persist is enabled.
type Manager struct {
	mu      sync.RWMutex
	kv      storage.KV
	token   *oauth2.Token
	roles   []string
	persist bool
	locale  language.Tag
	logger  *slog.Logger
}

// NewManager creates a manager backed by kv. Call Load to restore a saved session.
func NewManager(kv storage.KV) *Manager {
	return &Manager{
		kv:      kv,
		persist: true,
		locale:  language.English,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used for storage warnings
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

// Load restores persist flag, locale and (when persisted) tokens
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	persist, err := m.get(ctx, KeyPersist)
	if err != nil {
		return err
	}
	m.persist = persist == "" || persist == "true"

	if raw, err := m.get(ctx, KeyLocale); err != nil {
		return err
	} else if raw != "" {
		m.locale = matchLocale(raw)
	}

	if !m.persist {
		return nil
	}

	access, err := m.get(ctx, KeyAccessToken)
	if err != nil {
		return err
	}
	if access == "" {
		return nil
	}
	refresh, err := m.get(ctx, KeyRefreshToken)
	if err != nil {
		return err
	}

	token := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if raw, err := m.get(ctx, KeyTokenExpiry); err == nil && raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			token.Expiry = t
		}
	}
	m.token = token

	if raw, err := m.get(ctx, KeyRoles); err == nil && raw != "" {
		m.roles = strings.Split(raw, ",")
	}
	return nil
}

// get reads key, mapping a missing key to ""
func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, err := m.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return v, nil
}

// AccessToken returns the current access token or ""
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// RefreshToken returns the current refresh token or ""
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return ""
	}
	return m.token.RefreshToken
}

// Token returns a copy of the current token, or nil
func (m *Manager) Token() *oauth2.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return nil
	}
	t := *m.token
	return &t
}

// Roles returns the roles granted with the current token
func (m *Manager) Roles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roles...)
}

// SetTokens replaces the session tokens. An empty refresh token keeps the
// previous one. The in-memory session is updated even when persisting fails.
func (m *Manager) SetTokens(t apiclient.Tokens) error {
	if t.AccessToken == "" {
		return errors.New("access token is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	refresh := t.RefreshToken
	if refresh == "" && m.token != nil {
		refresh = m.token.RefreshToken
	}
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	expiry := tokenExpiry(t.AccessToken)
	if t.ExpiresIn > 0 {
		expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	m.token = &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: refresh,
		TokenType:    tokenType,
		Expiry:       expiry,
	}
	if t.Roles != nil {
		m.roles = append([]string(nil), t.Roles...)
	}

	if !m.persist {
		return nil
	}
	return m.writeTokensLocked()
}

func (m *Manager) writeTokensLocked() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if m.token == nil {
		return m.kv.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyRoles)
	}

	values := map[string]string{
		KeyAccessToken:  m.token.AccessToken,
		KeyRefreshToken: m.token.RefreshToken,
		KeyRoles:        strings.Join(m.roles, ","),
	}
	if m.token.Expiry.IsZero() {
		if err := m.kv.Delete(ctx, KeyTokenExpiry); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	} else {
		values[KeyTokenExpiry] = m.token.Expiry.UTC().Format(time.RFC3339)
	}
	for key, value := range values {
		if err := m.kv.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}
	return nil
}

// Clear drops the session from memory and from the durable store
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = nil
	m.roles = nil

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.kv.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyRoles); err != nil {
		m.logger.Warn("failed to clear stored session", "error", err)
		return err
	}
	return nil
}

// Persist reports whether tokens are written to the durable store
func (m *Manager) Persist() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persist
}

// SetPersist toggles durable storage of tokens. Disabling removes stored
// tokens but keeps the in-memory session.
func (m *Manager) SetPersist(persist bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persist = persist

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.kv.Set(ctx, KeyPersist, strconv.FormatBool(persist)); err != nil {
		return fmt.Errorf("failed to save persist flag: %w", err)
	}

	if !persist {
		return m.kv.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyRoles)
	}
	return m.writeTokensLocked()
}

// IsAuthenticated reports whether the session can make authenticated calls.
// An expired access token still counts while a refresh token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil || m.token.AccessToken == "" {
		return false
	}
	if m.token.RefreshToken != "" {
		return true
	}
	return m.token.Expiry.IsZero() || time.Now().Before(m.token.Expiry)
}

// ExpiresAt returns the access token expiry, zero when unknown
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return time.Time{}
	}
	return m.token.Expiry
}

// Locale returns the BCP 47 tag sent as Accept-Language
func (m *Manager) Locale() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locale.String()
}

// SetLocale matches tag against SupportedLocales and stores the result
func (m *Manager) SetLocale(tag string) (string, error) {
	if _, err := language.Parse(tag); err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", tag, err)
	}
	matched := matchLocale(tag)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.locale = matched

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.kv.Set(ctx, KeyLocale, matched.String()); err != nil {
		return "", fmt.Errorf("failed to save locale: %w", err)
	}
	return matched.String(), nil
}

func matchLocale(raw string) language.Tag {
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	_, idx, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return language.English
	}
	return SupportedLocales[idx]
}

// tokenExpiry reads the exp claim without verifying the signature.
// The backend is the only party that verifies tokens.
func tokenExpiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
