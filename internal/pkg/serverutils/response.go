package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// ApiError carries an HTTP status through the service layer so the error
// middleware can map it without string matching.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *ApiError {
	return &ApiError{Status: fiber.StatusNotFound, Message: message}
}

func NewBadRequestError(message string) *ApiError {
	return &ApiError{Status: fiber.StatusBadRequest, Message: message}
}

var validate = validator.New()

func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, f := range invalid {
				fields = append(fields, fmt.Sprintf("%s (%s)", f.Field(), f.Tag()))
			}
			return NewBadRequestError("validation failed: " + strings.Join(fields, ", "))
		}
		return NewBadRequestError(err.Error())
	}
	return nil
}

// ErrorHandlerMiddleware converts errors returned by handlers into the JSON
// envelope. Unknown errors become 500s with a generic message so internals do
// not leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return ctx.Status(apiErr.Status).JSON(ErrorResponse(apiErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
