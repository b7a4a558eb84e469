package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the uniform envelope every API endpoint replies with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors"`
}

func successResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func errorResponse(c echo.Context, statusCode int, message string, errs interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func validationErrorResponse(c echo.Context, errs interface{}) error {
	return errorResponse(c, http.StatusUnprocessableEntity, "Validation failed", errs)
}

func notFoundResponse(c echo.Context, message string) error {
	return errorResponse(c, http.StatusNotFound, message, nil)
}

func serverErrorResponse(c echo.Context, message string) error {
	return errorResponse(c, http.StatusInternalServerError, message, nil)
}
