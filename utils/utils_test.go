package utils

import (
	"testing"
	"time"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"  user@example.com  ", true},
		{"user@sub.example.co.in", true},
		{"userexample.com", false},
		{"user@", false},
		{"@example.com", false},
		{"user @example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.valid {
			t.Errorf("IsValidEmail(%q) = %t, want %t", tt.email, got, tt.valid)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"9876543210", true},
		{"6123456789", true},
		{"98765 43210", true}, // spaces stripped
		{"5876543210", false}, // must start 6-9
		{"987654321", false},  // too short
		{"98765432100", false},
		{"abcdefghij", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidPhone(tt.phone); got != tt.valid {
			t.Errorf("IsValidPhone(%q) = %t, want %t", tt.phone, got, tt.valid)
		}
	}
}

func TestIsPastDate(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	if IsPastDate(today) {
		t.Errorf("today must not count as past")
	}
	if IsPastDate(tomorrow) {
		t.Errorf("tomorrow must not count as past")
	}
	if !IsPastDate(yesterday) {
		t.Errorf("yesterday must count as past")
	}
	if !IsPastDate("not-a-date") {
		t.Errorf("malformed dates must be rejected as past")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_BAD_INT", "nope")

	if got := GetEnvOrDefault("TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnvOrDefault = %q", got)
	}
	if got := GetEnvOrDefault("TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnvOrDefault fallback = %q", got)
	}
	if got := GetEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value = %d", got)
	}
	if got := GetEnvBool("TEST_BOOL", true); got {
		t.Errorf("GetEnvBool = %t", got)
	}
	if got := GetEnvBool("TEST_MISSING", true); !got {
		t.Errorf("GetEnvBool fallback = %t", got)
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a := GenerateSessionToken()
	b := GenerateSessionToken()
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
}
