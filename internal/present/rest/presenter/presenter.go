package presenter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/totegamma/tentd/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Empty is a 200 with no body.
func Empty(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Error maps a domain error onto its status code. Anything outside the
// taxonomy is a 500 whose details stay in the log.
func Error(c echo.Context, err error) error {
	var coder domain.StatusCoder
	if errors.As(err, &coder) {
		status := coder.StatusCode()
		if status >= 500 {
			zap.L().Warn("upstream failure", zap.String("path", c.Path()), zap.Error(err))
		} else {
			zap.L().Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
		}
		return c.JSON(status, errorResponse{Error: err.Error()})
	}
	return InternalError(c, err)
}

func BadRequestMessage(c echo.Context, msg string) error {
	zap.L().Debug("bad request", zap.String("path", c.Path()), zap.String("reason", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	zap.L().Error("internal error", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
