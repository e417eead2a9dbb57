package schedule

import (
	"testing"
	"time"

	"cinetix-cli/model"
)

func TestByCinema_GroupsByDayThenCinema(t *testing.T) {
	at := func(day, hour int) time.Time { return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC) }
	sessions := []model.MovieSession{
		{Id: 3, CinemaId: 2, StartTime: at(2, 18)},
		{Id: 1, CinemaId: 1, StartTime: at(1, 21)},
		{Id: 2, CinemaId: 1, StartTime: at(1, 15)},
		{Id: 4, CinemaId: 9, StartTime: at(1, 12)},
	}
	cinemas := []model.Cinema{{Id: 1, Name: "Aurora"}, {Id: 2, Name: "Meridian"}}

	days := ByCinema(sessions, cinemas, time.UTC)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	first := days[0]
	if first.Date.Day() != 1 || len(first.Groups) != 2 {
		t.Fatalf("unexpected first day: %+v", first)
	}
	if first.Groups[0].Name != "Aurora" || first.Groups[1].Name != "Unknown cinema" {
		t.Fatalf("expected groups sorted by name, got %+v", first.Groups)
	}
	times := first.Groups[0].Showtimes
	if len(times) != 2 || times[0].SessionID != 2 || times[1].SessionID != 1 {
		t.Fatalf("expected showtimes sorted by start, got %+v", times)
	}
	if days[1].Groups[0].Name != "Meridian" {
		t.Fatalf("unexpected second day: %+v", days[1])
	}
}

func TestByMovie_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	sessions := []model.MovieSession{
		{Id: 1, MovieId: 7, StartTime: time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)},
	}

	days := ByMovie(sessions, nil, loc)
	if len(days) != 1 || days[0].Date.Day() != 2 {
		t.Fatalf("expected session on local next day, got %+v", days)
	}
	if days[0].Groups[0].Name != "Film 7" {
		t.Fatalf("expected fallback title, got %q", days[0].Groups[0].Name)
	}
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := []model.MovieSession{
		{Id: 1, StartTime: now.Add(-time.Minute)},
		{Id: 2, StartTime: now},
		{Id: 3, StartTime: now.Add(time.Hour)},
	}
	got := Upcoming(sessions, now)
	if len(got) != 2 || got[0].Id != 2 || got[1].Id != 3 {
		t.Fatalf("unexpected upcoming sessions: %+v", got)
	}
	if len(sessions) != 3 {
		t.Fatal("expected input untouched")
	}
}
