package httpapi

import (
	"errors"
	"net/http"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/student"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	errMissingToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed token")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// statusFor maps domain errors to HTTP status codes. Zero means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, classroom.ErrClassroomNotFound),
		errors.Is(err, student.ErrStudentNotFound),
		errors.Is(err, parent.ErrParentNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotClassroomOwner):
		return http.StatusForbidden
	case errors.Is(err, app.ErrStudentNotInClassroom),
		errors.Is(err, app.ErrEmptyAttendance),
		errors.Is(err, app.ErrRemarkContentRequired):
		return http.StatusBadRequest
	}
	return 0
}

// newHTTPErrorHandler renders every error returned by a handler as
// {"success": false, ...}. Unknown errors are logged and hidden behind a 500.
func newHTTPErrorHandler(v *requestValidator, logger *logrus.Entry) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := echo.Map{"success": false}

		var httpErr *echo.HTTPError
		var bindErr *echo.BindingError
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			code = http.StatusBadRequest
			body["error"] = "validation failed"
			body["fields"] = v.fieldErrors(validationErrs)
		// BindingError embeds *echo.HTTPError but unwraps to the parse error.
		case errors.As(err, &bindErr):
			code = bindErr.Code
			body["error"] = bindErr.Message
			body["fields"] = map[string]string{bindErr.Field: "invalid value"}
		case errors.As(err, &httpErr):
			code = httpErr.Code
			body["error"] = httpErr.Message
		case statusFor(err) != 0:
			code = statusFor(err)
			body["error"] = err.Error()
		default:
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("Unhandled request error")
			body["error"] = http.StatusText(http.StatusInternalServerError)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, body)
		}
		if sendErr != nil {
			logger.WithError(sendErr).Warn("Failed to write error response")
		}
	}
}
