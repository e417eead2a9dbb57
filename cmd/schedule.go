package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinetix-cli/model"
	"cinetix-cli/schedule"
	"cinetix-cli/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [movie-id]",
	Short: "Find upcoming sessions of a film",
	Long:  `Find upcoming sessions of a film in every cinema. Without an id you pick the film from a list.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()
		ctx := context.Background()

		movies, err := state.Movies(ctx)
		if err != nil {
			return fmt.Errorf("load films: %w", err)
		}
		var movieID int
		if len(args) == 1 {
			if movieID, err = parseID(args[0]); err != nil {
				return err
			}
		} else if movieID, err = promptSelectMovie(movies); err != nil {
			return err
		}

		sessions, err := state.Client.MovieSessions(ctx, movieID)
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		cinemas, err := state.Cinemas(ctx)
		if err != nil {
			return fmt.Errorf("load cinemas: %w", err)
		}
		days := schedule.ByCinema(schedule.Upcoming(sessions, time.Now()), cinemas, time.Local)
		renderDays(cmd.OutOrStdout(), "Cinema", days)
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [cinema-id]",
	Short: "Show a cinema's schedule",
	Long:  `Show what is playing in a cinema by day. Without an id you pick the cinema from a list.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()
		ctx := context.Background()

		cinemas, err := state.Cinemas(ctx)
		if err != nil {
			return fmt.Errorf("load cinemas: %w", err)
		}
		var cinemaID int
		if len(args) == 1 {
			if cinemaID, err = parseID(args[0]); err != nil {
				return err
			}
		} else if cinemaID, err = promptSelectCinema(cinemas); err != nil {
			return err
		}

		sessions, err := state.CinemaSchedule(ctx, cinemaID)
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		for _, c := range cinemas {
			if c.Id == cinemaID {
				_ = store.RememberCinema(c)
			}
		}
		movies, err := state.Movies(ctx)
		if err != nil {
			return fmt.Errorf("load films: %w", err)
		}
		days := schedule.ByMovie(schedule.Upcoming(sessions, time.Now()), movies, time.Local)
		renderDays(cmd.OutOrStdout(), "Film", days)
		return nil
	},
}

func renderDays(w io.Writer, groupLabel string, days []schedule.Day) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No upcoming sessions.")
		return
	}

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", groupLabel, "Time", "Session"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true, WidthMax: 24},
	})
	t.Style().Options.SeparateRows = true

	for _, day := range days {
		var items []table.Row
		for _, group := range day.Groups {
			for _, show := range group.Showtimes {
				items = append(items, table.Row{
					day.Date.Format("Mon 02 Jan"),
					group.Name,
					show.Start.Format("15:04"),
					show.SessionID,
				})
			}
		}
		t.AppendRows(items, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()
}

func promptSelectMovie(movies []model.Movie) (int, error) {
	if len(movies) == 0 {
		return 0, errors.New("no films available")
	}
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}
	index, err := runSelect("Select Film", titles)
	if err != nil {
		return 0, err
	}
	return movies[index].Id, nil
}

func promptSelectCinema(cinemas []model.Cinema) (int, error) {
	if len(cinemas) == 0 {
		return 0, errors.New("no cinemas available")
	}
	names := make([]string, len(cinemas))
	for i, c := range cinemas {
		names[i] = c.Name
	}
	index, err := runSelect("Select Cinema", names)
	if err != nil {
		return 0, err
	}
	return cinemas[index].Id, nil
}

func runSelect(label string, items []string) (int, error) {
	selectItem := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}
	index, _, err := selectItem.Run()
	if err != nil {
		return 0, fmt.Errorf("select: %w", err)
	}
	return index, nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
