package handler

import (
	"errors"
	"fmt"
	"net/http"

	"cartservice/internal/domain/model"
	"cartservice/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPError はステータスとメッセージの組
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ドメインエラーをHTTPに寄せる
func toHTTPError(err error) *HTTPError {
	if he, ok := AsHTTPError(err); ok {
		return he
	}

	switch {
	case errors.Is(err, model.ErrCartNotFound),
		errors.Is(err, model.ErrCartLineNotFound),
		errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return &HTTPError{Status: http.StatusNotFound, Message: err.Error()}

	case errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrInvalidWeight),
		errors.Is(err, validator.ErrInvalidInput):
		return &HTTPError{Status: http.StatusBadRequest, Message: err.Error()}

	case errors.Is(err, model.ErrDuplicateCart):
		return &HTTPError{Status: http.StatusConflict, Message: err.Error()}

	case errors.Is(err, model.ErrExternalService):
		return &HTTPError{Status: http.StatusBadGateway, Message: "external service failure"}
	}

	//500
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error"}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	he := toHTTPError(err)
	return c.JSON(he.Status, ErrorResponse{Error: he.Message})
}
