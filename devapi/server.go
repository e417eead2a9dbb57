// Package devapi serves the booking API from memory for local runs and
// tests.
package devapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"cinetix-cli/model"
)

type Config struct {
	PaymentSeconds int
	JWTSecret      string
	TokenTTL       time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

type Server struct {
	echo   *echo.Echo
	data   *data
	cfg    Config
	log    *slog.Logger
	secret []byte
}

const userIDKey = "user_id"

func New(cfg Config, log *slog.Logger) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		echo:   echo.New(),
		data:   newData(cfg.Now, time.Duration(cfg.PaymentSeconds)*time.Second, cfg.BcryptCost),
		cfg:    cfg,
		log:    log,
		secret: []byte(cfg.JWTSecret),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.data.seed()
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(s.requestLog)

	e.POST("/login", s.login)
	e.POST("/register", s.register)
	e.GET("/settings", s.settings)
	e.GET("/movies", s.movies)
	e.GET("/movies/:id", s.movie)
	e.GET("/movies/:id/sessions", s.movieSessions)
	e.GET("/cinemas", s.cinemas)
	e.GET("/cinemas/:id/sessions", s.cinemaSessions)
	e.GET("/movieSessions/:id", s.sessionDetails)

	e.POST("/movieSessions/:id/bookings", s.createBooking, s.requireAuth)
	e.GET("/me/bookings", s.myBookings, s.requireAuth)
	e.POST("/bookings/:id/payments", s.payBooking, s.requireAuth)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.log.Info("dev api listening", slog.String("addr", addr), slog.Int("payment_seconds", s.cfg.PaymentSeconds))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info("http request",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", c.Response().Status),
			slog.Duration("duration", time.Since(started)),
			slog.String("request_id", c.Request().Header.Get("X-Request-ID")),
		)
		return nil
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		s.log.Error("request failed", slog.String("error", err.Error()))
	}
	_ = c.JSON(code, echo.Map{"message": message})
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.cfg.Now))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		userID, err := strconv.Atoi(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
		}
		c.Set(userIDKey, userID)
		return next(c)
	}
}

func (s *Server) issueToken(u model.User) (string, error) {
	now := s.cfg.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(u.Id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) authResponse(c echo.Context, code int, u model.User) error {
	token, err := s.issueToken(u)
	if err != nil {
		return err
	}
	return c.JSON(code, model.AuthResponse{Token: token, User: u})
}

func (s *Server) login(c echo.Context) error {
	var creds model.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	u, err := s.data.login(creds)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return s.authResponse(c, http.StatusOK, u)
}

func (s *Server) register(c echo.Context) error {
	var reg model.Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(reg.Username) == "" || strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}
	u, err := s.data.register(reg)
	if errors.Is(err, errUserExists) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return s.authResponse(c, http.StatusCreated, u)
}

func (s *Server) settings(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"bookingPaymentTimeSeconds": s.cfg.PaymentSeconds})
}

func (s *Server) movies(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listMovies())
}

func (s *Server) movie(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	m, err := s.data.movie(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "movie not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) movieSessions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := s.data.movie(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "movie not found")
	}
	return c.JSON(http.StatusOK, s.data.sessionsWhere(func(ms model.MovieSession) bool { return ms.MovieId == id }))
}

func (s *Server) cinemas(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listCinemas())
}

func (s *Server) cinemaSessions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if !s.data.cinemaExists(id) {
		return echo.NewHTTPError(http.StatusNotFound, "cinema not found")
	}
	return c.JSON(http.StatusOK, s.data.sessionsWhere(func(ms model.MovieSession) bool { return ms.CinemaId == id }))
}

func (s *Server) sessionDetails(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	detail, err := s.data.sessionDetails(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) createBooking(c echo.Context) error {
	sessionID, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	b, err := s.data.book(c.Get(userIDKey).(int), sessionID, req.Seats)
	switch {
	case errors.Is(err, errNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, errSeatTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errNoSeats), errors.Is(err, errSeatOutside):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	s.log.Info("booking created", slog.String("booking_id", b.Id), slog.Int("session_id", sessionID), slog.Int("seats", len(b.Seats)))
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) myBookings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.bookingsOf(c.Get(userIDKey).(int)))
}

func (s *Server) payBooking(c echo.Context) error {
	id := c.Param("id")
	err := s.data.pay(c.Get(userIDKey).(int), id)
	switch {
	case errors.Is(err, errNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	case errors.Is(err, errAlreadyPaid):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errWindowElapsed):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case err != nil:
		return err
	}
	s.log.Info("booking paid", slog.String("booking_id", id))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "isPaid": true})
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
