package timeago_test

import (
	"testing"
	"time"

	"github.com/garnizeh/marketplace/pkg/timeago"
)

func TestLabel(t *testing.T) {
	now := time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "Just now"},
		{"under an hour", 59 * time.Minute, "Just now"},
		{"one hour", time.Hour, "1h ago"},
		{"almost a day", 23*time.Hour + 59*time.Minute, "23h ago"},
		{"one day", 24 * time.Hour, "1d ago"},
		{"six days", 6*24*time.Hour + 12*time.Hour, "6d ago"},
		{"one week", 7 * 24 * time.Hour, "1w ago"},
		{"ten weeks", 70 * 24 * time.Hour, "10w ago"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := timeago.Label(now.Add(-tc.elapsed), now)
			if got != tc.want {
				t.Fatalf("Label(%v) = %q, want %q", tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestLabelMillis(t *testing.T) {
	now := time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)
	created := now.Add(-3 * time.Hour).UnixMilli()
	if got := timeago.LabelMillis(created, now); got != "3h ago" {
		t.Fatalf("LabelMillis = %q, want %q", got, "3h ago")
	}
}
