// Package httpapi is the echo based JSON API used by the teacher dashboard
// and the parent mobile app.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"schoolbridge/internal/app"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Address        string
	JWTSecret      []byte
	DisableReqLogs bool
	Classrooms     *app.ClassroomService
	Notifications  *app.NotificationService
	Logger         *logrus.Entry
}

type Server struct {
	opts Options
	app  *echo.Echo
}

func NewServer(opts Options) *Server {
	s := &Server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	v := newRequestValidator()

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = v
	s.app.HTTPErrorHandler = newHTTPErrorHandler(v, s.opts.Logger)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Recover())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.opts.Logger))
	}

	s.app.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := s.app.Group("/api", JWTMiddleware(s.opts.JWTSecret))
	teacherOnly := RequireRole(RoleTeacher)
	parentOnly := RequireRole(RoleParent)

	registerClassroomAPI(api, teacherOnly, s.opts.Classrooms)
	registerParentAPI(api, teacherOnly, parentOnly, s.opts.Classrooms)
	registerNotificationAPI(api, parentOnly, s.opts.Notifications)
}

// Start blocks serving on the configured address until Stop is called.
func (s *Server) Start() error {
	s.opts.Logger.WithField("address", s.opts.Address).Info("HTTP server listening")
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func requestLogger(logger *logrus.Entry) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("HTTP request failed")
				return nil
			}
			entry.Info("HTTP request")
			return nil
		},
	})
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
