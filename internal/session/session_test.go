package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/storage"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestManager_SetTokensPersists(t *testing.T) {
	ctx := context.Background()
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer kv.Close()

	m := NewManager(kv)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Fatal("Expected empty session to be unauthenticated")
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, exp)
	if err := m.SetTokens(apiclient.Tokens{AccessToken: access, RefreshToken: "r1", Roles: []string{"student"}}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}

	if !m.ExpiresAt().Equal(exp) {
		t.Errorf("Expected expiry from jwt %v, got %v", exp, m.ExpiresAt())
	}

	restored := NewManager(kv)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.AccessToken() != access {
		t.Error("Expected access token restored from store")
	}
	if restored.RefreshToken() != "r1" {
		t.Errorf("Expected refresh token r1, got %q", restored.RefreshToken())
	}
	if roles := restored.Roles(); len(roles) != 1 || roles[0] != "student" {
		t.Errorf("Expected roles [student], got %v", roles)
	}
	if !restored.IsAuthenticated() {
		t.Error("Expected restored session to be authenticated")
	}
}

func TestManager_SetTokensKeepsRefreshToken(t *testing.T) {
	m := NewManager(storage.NewMemory())

	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a2", ExpiresIn: 60}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}

	if m.AccessToken() != "a2" {
		t.Errorf("Expected a2, got %s", m.AccessToken())
	}
	if m.RefreshToken() != "r1" {
		t.Errorf("Expected refresh token kept, got %q", m.RefreshToken())
	}
	if m.ExpiresAt().IsZero() {
		t.Error("Expected expiry from expiresIn")
	}

	if err := m.SetTokens(apiclient.Tokens{}); err == nil {
		t.Error("Expected error for empty access token")
	}
}

func TestManager_SetTokensDropsStaleExpiry(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	m := NewManager(kv)

	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 60}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	if raw, _ := kv.Get(ctx, KeyTokenExpiry); raw == "" {
		t.Fatal("Expected expiry persisted for the first token")
	}

	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a2"}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	if raw, _ := kv.Get(ctx, KeyTokenExpiry); raw != "" {
		t.Errorf("Expected stale expiry removed, got %q", raw)
	}

	restored := NewManager(kv)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.AccessToken() != "a2" {
		t.Errorf("Expected a2, got %s", restored.AccessToken())
	}
	if !restored.ExpiresAt().IsZero() {
		t.Errorf("Expected no expiry, got %v", restored.ExpiresAt())
	}
}

func TestManager_PersistDisabled(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	m := NewManager(kv)
	if err := m.SetPersist(false); err != nil {
		t.Fatalf("SetPersist failed: %v", err)
	}
	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}

	if _, err := kv.Get(ctx, KeyAccessToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no stored access token, got %v", err)
	}
	if !m.IsAuthenticated() {
		t.Error("Expected in-memory session to be authenticated")
	}

	restored := NewManager(kv)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.Persist() {
		t.Error("Expected persist flag false after reload")
	}
	if restored.IsAuthenticated() {
		t.Error("Expected reloaded session to be empty")
	}

	if err := m.SetPersist(true); err != nil {
		t.Fatalf("SetPersist failed: %v", err)
	}
	if v, err := kv.Get(ctx, KeyAccessToken); err != nil || v != "a1" {
		t.Errorf("Expected token written on enabling persist, got %q (%v)", v, err)
	}
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	m := NewManager(kv)

	if err := m.SetTokens(apiclient.Tokens{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if m.AccessToken() != "" || m.RefreshToken() != "" {
		t.Error("Expected tokens cleared from memory")
	}
	if _, err := kv.Get(ctx, KeyRefreshToken); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected refresh token removed from store, got %v", err)
	}
}

func TestManager_ExpiredWithoutRefresh(t *testing.T) {
	m := NewManager(storage.NewMemory())
	access := signedToken(t, time.Now().Add(-time.Minute))

	if err := m.SetTokens(apiclient.Tokens{AccessToken: access}); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("Expected expired token without refresh token to be unauthenticated")
	}
}

func TestManager_Locale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fr", "fr"},
		{"fr-CA", "fr"},
		{"es-MX", "es"},
		{"de", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := NewManager(storage.NewMemory())
			got, err := m.SetLocale(tt.input)
			if err != nil {
				t.Fatalf("SetLocale failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
			if m.Locale() != tt.expected {
				t.Errorf("Expected Locale() %s, got %s", tt.expected, m.Locale())
			}
		})
	}

	m := NewManager(storage.NewMemory())
	if _, err := m.SetLocale("not a tag!"); err == nil {
		t.Error("Expected error for invalid tag")
	}
}
