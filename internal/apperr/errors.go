package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeInvalidMimeType  Code = "INVALID_MIME_TYPE"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeEmptyInput       Code = "EMPTY_INPUT"
	CodeUnreadableDoc    Code = "UNREADABLE_DOCUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeEmptyModelOutput Code = "EMPTY_MODEL_RESPONSE"
	CodeUnparsableOutput Code = "UNPARSABLE_MODEL_OUTPUT"
	CodeUpstream         Code = "UPSTREAM_ERROR"
	CodeConfiguration    Code = "CONFIGURATION_ERROR"
	CodeInternal         Code = "INTERNAL"
)

// AppError is the unified error contract across layers.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "StorageService.Save"
	Message string // safe message, returned to the caller verbatim
	Err     error  // wrapped cause
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Message returns the safe message of an AppError, or a generic fallback for
// anything else so internal details never leak to the HTTP response.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal server error"
}

func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeValidation, CodeInvalidMimeType, CodePayloadTooLarge,
			CodeEmptyInput, CodeUnreadableDoc:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
