package service

import (
	"context"
	"fmt"

	"cinetix-cli/model"
)

// Movies returns every film on the catalog.
func (c *Client) Movies(ctx context.Context) ([]model.Movie, error) {
	var movies []model.Movie
	if err := c.getJSON(ctx, "/movies", &movies); err != nil {
		return nil, err
	}
	if err := checkEach(c, "/movies", movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) Movie(ctx context.Context, movieID int) (model.Movie, error) {
	if movieID <= 0 {
		return model.Movie{}, fmt.Errorf("%w: movie id", errMissingParameter)
	}
	endpoint := fmt.Sprintf("/movies/%d", movieID)
	var movie model.Movie
	if err := c.getJSON(ctx, endpoint, &movie); err != nil {
		return model.Movie{}, err
	}
	if err := c.checkStruct(endpoint, &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// MovieSessions lists the screenings of one film across all cinemas.
func (c *Client) MovieSessions(ctx context.Context, movieID int) ([]model.MovieSession, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("%w: movie id", errMissingParameter)
	}
	return c.sessions(ctx, fmt.Sprintf("/movies/%d/sessions", movieID))
}

func (c *Client) Cinemas(ctx context.Context) ([]model.Cinema, error) {
	var cinemas []model.Cinema
	if err := c.getJSON(ctx, "/cinemas", &cinemas); err != nil {
		return nil, err
	}
	if err := checkEach(c, "/cinemas", cinemas); err != nil {
		return nil, err
	}
	return cinemas, nil
}

// CinemaSessions lists the schedule of one cinema.
func (c *Client) CinemaSessions(ctx context.Context, cinemaID int) ([]model.MovieSession, error) {
	if cinemaID <= 0 {
		return nil, fmt.Errorf("%w: cinema id", errMissingParameter)
	}
	return c.sessions(ctx, fmt.Sprintf("/cinemas/%d/sessions", cinemaID))
}

func (c *Client) sessions(ctx context.Context, endpoint string) ([]model.MovieSession, error) {
	var sessions []model.MovieSession
	if err := c.getJSON(ctx, endpoint, &sessions); err != nil {
		return nil, err
	}
	if err := checkEach(c, endpoint, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionDetails fetches the hall layout and booked seats of a session.
func (c *Client) SessionDetails(ctx context.Context, sessionID int) (model.MovieSessionDetails, error) {
	if sessionID <= 0 {
		return model.MovieSessionDetails{}, fmt.Errorf("%w: session id", errMissingParameter)
	}
	endpoint := fmt.Sprintf("/movieSessions/%d", sessionID)
	var detail model.MovieSessionDetails
	if err := c.getJSON(ctx, endpoint, &detail); err != nil {
		if IsNotFound(err) {
			return model.MovieSessionDetails{}, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
		}
		return model.MovieSessionDetails{}, err
	}
	if err := c.checkStruct(endpoint, &detail); err != nil {
		return model.MovieSessionDetails{}, err
	}
	return detail, nil
}
