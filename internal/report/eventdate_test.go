package report

import (
	"testing"
	"time"
)

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-08-15", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"2025-08-15T10:20:30Z", time.Date(2025, 8, 15, 10, 20, 30, 0, time.UTC)},
		{"2025-08-15T10:20:30.250Z", time.Date(2025, 8, 15, 10, 20, 30, 250_000_000, time.UTC)},
		{"2025-08-15T10:20:30-07:00", time.Date(2025, 8, 15, 17, 20, 30, 0, time.UTC)},
		{"2025-08-15T10:20:30", time.Date(2025, 8, 15, 10, 20, 30, 0, time.UTC)},
		{"2025-08-15 10:20:30", time.Date(2025, 8, 15, 10, 20, 30, 0, time.UTC)},
		{"2025-08-15 10:20:30+00", time.Date(2025, 8, 15, 10, 20, 30, 0, time.UTC)},
		{" 2025-08-15 ", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseEventDate(tt.input)
			if !ok {
				t.Fatalf("ParseEventDate(%q) returned ok=false", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseEventDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseEventDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "yesterday", "2025-02-30", "15/08/2025", "2025-08-15T25:00:00Z"} {
		if _, ok := ParseEventDate(s); ok {
			t.Errorf("ParseEventDate(%q) returned ok=true", s)
		}
	}
}
