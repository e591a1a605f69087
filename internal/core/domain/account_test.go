package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPlatformAccount_NeedsRefresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"no expiry", time.Time{}, false},
		{"expires in an hour", now.Add(time.Hour), false},
		{"expires in exactly five minutes", now.Add(5 * time.Minute), false},
		{"expires in four minutes", now.Add(4 * time.Minute), true},
		{"already expired", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &PlatformAccount{ExpiresAt: tt.expiresAt}
			if got := account.NeedsRefresh(now, DefaultRefreshBuffer); got != tt.expected {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPlatformAccount_ToSummary(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	account := &PlatformAccount{
		ID:                     "acc-1",
		UserID:                 "user-1",
		Platform:               PlatformTwitch,
		Handle:                 "streamer",
		AccessTokenCiphertext:  []byte("secret-access"),
		RefreshTokenCiphertext: []byte("secret-refresh"),
		ExpiresAt:              expiresAt,
		Status:                 AccountStatusActive,
	}

	summary := account.ToSummary()
	if summary.ID != "acc-1" || summary.Handle != "streamer" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.ExpiresAt == nil || !summary.ExpiresAt.Equal(expiresAt) {
		t.Errorf("expected expires_at %v, got %v", expiresAt, summary.ExpiresAt)
	}
	if summary.Scopes == nil {
		t.Error("expected empty scopes slice, got nil")
	}

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("summary leaked ciphertext: %s", data)
	}
}

func TestPlatformAccount_JSONHidesCiphertext(t *testing.T) {
	account := &PlatformAccount{
		AccessTokenCiphertext:  []byte("secret-access"),
		RefreshTokenCiphertext: []byte("secret-refresh"),
	}

	data, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "c2VjcmV0") {
		t.Errorf("account JSON leaked ciphertext: %s", data)
	}
}

func TestAccountKey(t *testing.T) {
	account := &PlatformAccount{UserID: "user-1", Platform: PlatformKick}
	if account.Key() != "user-1:kick" {
		t.Errorf("unexpected key %q", account.Key())
	}
}
