package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/taskorbit/orchestrator/pkg/apperrors"
	"github.com/taskorbit/orchestrator/pkg/db"
)

// mapError maps a component error to an HTTP response, the same role
// a mapServiceError-shaped role, generalized from a
// fixed services.* sentinel list to apperrors.Kind's closed taxonomy
// (SPEC_FULL.md §7's error table).
func mapError(err error) *echo.HTTPError {
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	typed, ok := apperrors.As(err)
	if !ok {
		slog.Error("api: unclassified error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	switch typed.Kind {
	case apperrors.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, typed.Message)
	case apperrors.KindAuth:
		return echo.NewHTTPError(http.StatusUnauthorized, typed.Message)
	case apperrors.KindBudgetExhausted:
		return echo.NewHTTPError(http.StatusPaymentRequired, typed.Message)
	case apperrors.KindNoAccountAvail, apperrors.KindRateLimited:
		return echo.NewHTTPError(http.StatusTooManyRequests, typed.Message)
	case apperrors.KindDeadlineExceeded:
		return echo.NewHTTPError(http.StatusGatewayTimeout, typed.Message)
	case apperrors.KindToolError:
		return echo.NewHTTPError(http.StatusBadGateway, typed.Message)
	default:
		slog.Error("api: internal error", "kind", typed.Kind, "correlation_id", typed.CorrelationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
