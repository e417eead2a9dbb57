package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cinetix-cli/schedule"
)

func TestRenderDays(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	days := []schedule.Day{{
		Date: day,
		Groups: []schedule.Group{{
			ID:   1,
			Name: "Aurora",
			Showtimes: []schedule.Showtime{
				{SessionID: 10, Start: day.Add(19*time.Hour + 30*time.Minute)},
			},
		}},
	}}

	var buf bytes.Buffer
	renderDays(&buf, "Cinema", days)
	out := buf.String()
	for _, want := range []string{"Mon 02 Mar", "Aurora", "19:30", "10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d err=%v", id, err)
	}
	for _, raw := range []string{"", "0", "-1", "x"} {
		if _, err := parseID(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
