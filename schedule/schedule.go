// Package schedule groups movie sessions into per-day listings.
package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"cinetix-cli/model"
)

type Showtime struct {
	SessionID int
	Start     time.Time
}

// Group is one cinema (in a film's listing) or one film (in a cinema's
// listing) on a given day.
type Group struct {
	ID        int
	Name      string
	Showtimes []Showtime
}

type Day struct {
	Date   time.Time
	Groups []Group
}

// ByCinema lays out a film's sessions by day, then cinema.
func ByCinema(sessions []model.MovieSession, cinemas []model.Cinema, loc *time.Location) []Day {
	names := make(map[int]string, len(cinemas))
	for _, c := range cinemas {
		names[c.Id] = c.Name
	}
	return group(sessions, loc, func(s model.MovieSession) (int, string) {
		if name, ok := names[s.CinemaId]; ok {
			return s.CinemaId, name
		}
		return s.CinemaId, "Unknown cinema"
	})
}

// ByMovie lays out a cinema's sessions by day, then film.
func ByMovie(sessions []model.MovieSession, movies []model.Movie, loc *time.Location) []Day {
	titles := make(map[int]string, len(movies))
	for _, m := range movies {
		titles[m.Id] = m.Title
	}
	return group(sessions, loc, func(s model.MovieSession) (int, string) {
		if title, ok := titles[s.MovieId]; ok {
			return s.MovieId, title
		}
		return s.MovieId, fmt.Sprintf("Film %d", s.MovieId)
	})
}

// Upcoming drops sessions that started before now.
func Upcoming(sessions []model.MovieSession, now time.Time) []model.MovieSession {
	return slices.DeleteFunc(slices.Clone(sessions), func(s model.MovieSession) bool {
		return s.StartTime.Before(now)
	})
}

func group(sessions []model.MovieSession, loc *time.Location, key func(model.MovieSession) (int, string)) []Day {
	if loc == nil {
		loc = time.Local
	}
	type dayKey struct{ y, m, d int }
	days := map[dayKey]*Day{}
	groups := map[dayKey]map[int]int{}

	for _, s := range sessions {
		start := s.StartTime.In(loc)
		y, m, d := start.Date()
		dk := dayKey{y, int(m), d}
		day, ok := days[dk]
		if !ok {
			day = &Day{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}
			days[dk] = day
			groups[dk] = map[int]int{}
		}
		id, name := key(s)
		idx, ok := groups[dk][id]
		if !ok {
			idx = len(day.Groups)
			groups[dk][id] = idx
			day.Groups = append(day.Groups, Group{ID: id, Name: name})
		}
		day.Groups[idx].Showtimes = append(day.Groups[idx].Showtimes, Showtime{SessionID: s.Id, Start: start})
	}

	out := make([]Day, 0, len(days))
	for _, day := range days {
		for i := range day.Groups {
			slices.SortFunc(day.Groups[i].Showtimes, func(a, b Showtime) int {
				return a.Start.Compare(b.Start)
			})
		}
		slices.SortStableFunc(day.Groups, func(a, b Group) int {
			return cmp.Compare(a.Name, b.Name)
		})
		out = append(out, *day)
	}
	slices.SortFunc(out, func(a, b Day) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
