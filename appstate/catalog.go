package appstate

import (
	"context"
	"log/slog"

	"cinetix-cli/model"
	"cinetix-cli/store"
)

// Movies serves the catalog from the disk cache while it is fresh. A failed
// fetch falls back to a stale cache when there is one.
func (s *State) Movies(ctx context.Context) ([]model.Movie, error) {
	return cached(s, "movies", store.LoadMovieCache, store.SaveMovieCache, func() ([]model.Movie, error) {
		return s.Client.Movies(ctx)
	})
}

func (s *State) Cinemas(ctx context.Context) ([]model.Cinema, error) {
	return cached(s, "cinemas", store.LoadCinemaCache, store.SaveCinemaCache, func() ([]model.Cinema, error) {
		return s.Client.Cinemas(ctx)
	})
}

func (s *State) CinemaSchedule(ctx context.Context, cinemaID int) ([]model.MovieSession, error) {
	load := func() ([]model.MovieSession, bool, error) { return store.LoadScheduleCache(cinemaID) }
	save := func(sessions []model.MovieSession) error { return store.SaveScheduleCache(cinemaID, sessions) }
	return cached(s, "schedule", load, save, func() ([]model.MovieSession, error) {
		return s.Client.CinemaSessions(ctx, cinemaID)
	})
}

func cached[T any](s *State, name string, load func() ([]T, bool, error), save func([]T) error, fetch func() ([]T, error)) ([]T, error) {
	items, fresh, err := load()
	if err != nil {
		s.Log.Debug("cache read failed", slog.String("cache", name), slog.String("error", err.Error()))
	}
	if err == nil && fresh && len(items) > 0 {
		return items, nil
	}

	fetched, fetchErr := fetch()
	if fetchErr != nil {
		if len(items) > 0 {
			s.Log.Warn("using stale cache", slog.String("cache", name), slog.String("error", fetchErr.Error()))
			return items, nil
		}
		return nil, fetchErr
	}
	if err := save(fetched); err != nil {
		s.Log.Debug("cache write failed", slog.String("cache", name), slog.String("error", err.Error()))
	}
	return fetched, nil
}
