package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
)

type errClass struct {
	sentinel error
	status   int
}

var errClasses = []errClass{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrUnauthorized, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// statusOf maps a service error to its HTTP status and a client-facing message.
func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, ""
	}
	for _, ec := range errClasses {
		if errors.Is(err, ec.sentinel) {
			msg := strings.TrimSuffix(err.Error(), ": "+ec.sentinel.Error())
			return ec.status, msg
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// fail logs err under event and converts it into an echo.HTTPError.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
