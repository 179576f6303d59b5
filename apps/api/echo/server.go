package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/checkin"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		ActivitySvc    *activity.Service
		RosterSvc      *roster.Service
		CheckinSvc     *checkin.Service
		LeaderboardSvc *leaderboard.Service
		ReflectionSvc  *reflection.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		// Now defaults to time.Now
		Now func() time.Time
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
		clock    *clock
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
		clock:    &clock{now: deps.Now, roster: deps.RosterSvc, fallback: deps.Conf.Location()},
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerCheckinAPI(v1, jwt, s.deps.CheckinSvc, s.deps.RosterSvc, s.clock, s.deps.Validate)
	registerLeaderboardAPI(v1, jwt, s.deps.LeaderboardSvc, s.deps.RosterSvc, s.clock)
	registerActivityAPI(v1, jwt, s.deps.ActivitySvc, s.deps.RosterSvc, s.deps.LeaderboardSvc, s.clock, s.deps.Validate, s.deps.Logger)
	registerReflectionAPI(v1, jwt, s.deps.ReflectionSvc, s.deps.RosterSvc, s.deps.Validate)
}

// Start listens until the server is shut down. Listening errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
