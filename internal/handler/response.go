package handler

import (
	"errors"
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Details any    `json:"details,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	he, ok := usecase.AsHTTPError(err)
	if !ok {
		he = &usecase.HTTPError{
			Kind:    usecase.KindInternal,
			Status:  http.StatusInternalServerError,
			Message: "internal error",
			Err:     err,
		}
	}

	//500 は原因をログに回して、レスポンスには出さない
	msg := he.Message
	if he.Status >= http.StatusInternalServerError {
		c.Set(middleware.CtxErrorKey, err)
		if he.Kind == usecase.KindInternal {
			msg = "internal error"
		}
	}
	return c.JSON(he.Status, ErrorResponse{
		Error:   string(he.Kind),
		Message: msg,
		Success: false,
		Details: he.Details,
	})
}

func badRequest(c echo.Context, msg string) error {
	return writeError(c, usecase.NewHTTPError(usecase.KindValidation, msg))
}

// bind + validate
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.WrapHTTPError(usecase.KindValidation, err, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// HTTPErrorHandler はルート未定義などechoが返すエラーも同じ形にする
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		kind := usecase.KindInternal
		switch ee.Code {
		case http.StatusNotFound:
			kind = usecase.KindNotFound
		case http.StatusMethodNotAllowed, http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
			kind = usecase.KindValidation
		case http.StatusUnauthorized:
			kind = usecase.KindUnauthorized
		case http.StatusForbidden:
			kind = usecase.KindForbidden
		case http.StatusTooManyRequests:
			kind = usecase.KindRateLimited
		}
		_ = c.JSON(ee.Code, ErrorResponse{Error: string(kind), Message: http.StatusText(ee.Code), Success: false})
		return
	}
	_ = writeError(c, err)
}
