package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestShortId(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "none"},
		{"abc", "abc"},
		{"12345678", "12345678"},
		{"0f3c1b9e-2d4a-4c55-9d0e-7d3f1e2a9b10", "0f3c1b9e..."},
	}
	for _, tt := range tests {
		if got := ShortId(tt.id); got != tt.want {
			t.Errorf("ShortId(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("250.50"), "USDC-base-sepolia")
	if got != "250.5 USDC-base-sepolia" {
		t.Errorf("FormatAmount = %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := FormatTimestamp(ts); got != "2026-03-01 08:30:00" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}
