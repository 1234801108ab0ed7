package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// respondError maps the service error taxonomy onto HTTP. Business-rule
// violations other than NotFound/Forbidden are all 400s with distinct codes;
// anything unrecognized is a storage-layer failure and surfaces as 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", err.Error()))
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("conflict", err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_state", err.Error()))
	case errors.Is(err, service.ErrPrecondition):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("precondition_failed", err.Error()))
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal server error"))
	}
}
