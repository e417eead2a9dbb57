package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cinetix-cli/model"
)

const (
	appDir           = "cinetix-cli"
	movieCacheTTL    = 6 * time.Hour
	cinemaCacheTTL   = 72 * time.Hour
	scheduleCacheTTL = 10 * time.Minute
	maxRecentCinemas = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentCinema struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type cinemaHistory struct {
	Cinemas []RecentCinema `json:"cinemas"`
}

type cinemaVisibility struct {
	Hidden []int `json:"hidden"`
}

// LoadMovieCache returns the cached catalog and whether it is still fresh.
func LoadMovieCache() ([]model.Movie, bool, error) {
	return loadFresh[[]model.Movie]("movies.json", movieCacheTTL)
}

func SaveMovieCache(movies []model.Movie) error {
	path, err := cachePath("movies.json")
	if err != nil {
		return err
	}
	return saveCache(path, movies)
}

func LoadCinemaCache() ([]model.Cinema, bool, error) {
	return loadFresh[[]model.Cinema]("cinemas.json", cinemaCacheTTL)
}

func SaveCinemaCache(cinemas []model.Cinema) error {
	path, err := cachePath("cinemas.json")
	if err != nil {
		return err
	}
	return saveCache(path, cinemas)
}

// LoadScheduleCache returns the cached session list of a cinema. Schedules
// change often, so the cache is short lived.
func LoadScheduleCache(cinemaID int) ([]model.MovieSession, bool, error) {
	return loadFresh[[]model.MovieSession](fmt.Sprintf("schedule_%d.json", cinemaID), scheduleCacheTTL)
}

func SaveScheduleCache(cinemaID int, sessions []model.MovieSession) error {
	path, err := cachePath(fmt.Sprintf("schedule_%d.json", cinemaID))
	if err != nil {
		return err
	}
	return saveCache(path, sessions)
}

func LoadRecentCinemas() ([]RecentCinema, error) {
	path, err := configPath("cinemas.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history cinemaHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid cinema history format")
	}
	return history.Cinemas, nil
}

// RememberCinema moves cinema to the front of the recent list.
func RememberCinema(cinema model.Cinema) error {
	history, _ := LoadRecentCinemas()
	next := []RecentCinema{{ID: cinema.Id, Name: cinema.Name}}

	for _, existing := range history {
		if existing.ID == cinema.Id {
			continue
		}
		if existing.Name != "" && stringsEqualFold(existing.Name, cinema.Name) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentCinemas {
			break
		}
	}

	return writeJSON("cinemas.json", cinemaHistory{Cinemas: next}, 0o644)
}

func LoadHiddenCinemas() (map[int]bool, error) {
	visibility, err := loadCinemaVisibility()
	if err != nil {
		return nil, err
	}
	result := make(map[int]bool, len(visibility.Hidden))
	for _, id := range visibility.Hidden {
		if id > 0 {
			result[id] = true
		}
	}
	return result, nil
}

func SetCinemaHidden(cinemaID int, hidden bool) error {
	if cinemaID <= 0 {
		return errors.New("cinema id is required")
	}

	visibility, err := loadCinemaVisibility()
	if err != nil {
		return err
	}

	index := slices.Index(visibility.Hidden, cinemaID)
	if hidden {
		if index < 0 {
			visibility.Hidden = append(visibility.Hidden, cinemaID)
		}
	} else if index >= 0 {
		visibility.Hidden = slices.Delete(visibility.Hidden, index, index+1)
	}
	slices.Sort(visibility.Hidden)
	return writeJSON("cinema_visibility.json", visibility, 0o644)
}

func loadFresh[T any](name string, ttl time.Duration) (T, bool, error) {
	var zero T
	path, err := cachePath(name)
	if err != nil {
		return zero, false, err
	}
	cache, err := loadCache[T](path)
	if err != nil {
		return zero, false, err
	}
	if cache.UpdatedAt.IsZero() {
		return cache.Data, false, nil
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= ttl, nil
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func loadCinemaVisibility() (cinemaVisibility, error) {
	path, err := configPath("cinema_visibility.json")
	if err != nil {
		return cinemaVisibility{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cinemaVisibility{}, nil
		}
		return cinemaVisibility{}, err
	}

	var visibility cinemaVisibility
	if err := json.Unmarshal(data, &visibility); err != nil {
		return cinemaVisibility{}, errors.New("invalid cinema visibility format")
	}
	return visibility, nil
}

// writeJSON writes v under the config dir.
func writeJSON(name string, v any, perm os.FileMode) error {
	path, err := configPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

// CachePath returns the location of name inside the application cache dir.
func CachePath(name string) (string, error) {
	return cachePath(name)
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
