// Package apierr is the error model shared by every feature package.
// Handlers render it as {"error":{"code","message"}}; anything that is not
// an *Error is an infrastructure failure and maps to 500.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeAlreadyCheckedIn Code = "ALREADY_CHECKED_IN"
	CodeNoOpenCheckIn    Code = "NO_OPEN_CHECKIN"
	CodeAlreadyClosed    Code = "ALREADY_CLOSED"
	CodeInvalidQRToken   Code = "INVALID_QR_TOKEN"
	CodeOutsideGeofence  Code = "OUTSIDE_GEOFENCE"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyProcessed Code = "ALREADY_PROCESSED"
	CodeConflict         Code = "CONFLICT"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeInternal         Code = "INTERNAL"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func AlreadyCheckedIn() *Error {
	return New(CodeAlreadyCheckedIn, "You have already checked in today. Check out first before checking in again.")
}

func NoOpenCheckIn() *Error {
	return New(CodeNoOpenCheckIn, "No open check-in found for today. Please check in first.")
}

func AlreadyClosed() *Error {
	return New(CodeAlreadyClosed, "This record is already closed")
}

func InvalidQRToken() *Error {
	return New(CodeInvalidQRToken, "QR code not recognised. Please scan the correct workplace QR code.")
}

func OutsideGeofence(msg string) *Error { return New(CodeOutsideGeofence, msg) }
func Invalid(msg string) *Error         { return New(CodeInvalidArgument, msg) }
func InvalidFormat(msg string) *Error   { return New(CodeInvalidFormat, msg) }
func NotFound(msg string) *Error        { return New(CodeNotFound, msg) }
func Conflict(msg string) *Error        { return New(CodeConflict, msg) }
func Unauthorized(msg string) *Error    { return New(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(CodeForbidden, msg) }
func Internal(msg string) *Error        { return New(CodeInternal, msg) }

func AlreadyProcessed() *Error {
	return New(CodeAlreadyProcessed, "Paysheet has already been processed")
}

// CodeOf returns the code carried by err, or "" for non-API errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeAlreadyCheckedIn, CodeAlreadyProcessed, CodeConflict:
		return http.StatusConflict
	case CodeNoOpenCheckIn, CodeAlreadyClosed, CodeInvalidQRToken, CodeOutsideGeofence,
		CodeInvalidArgument, CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type body struct {
	Error *Error `json:"error"`
}

// Body converts err into the response payload. Non-API errors are masked.
func Body(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return body{Error: e}
	}
	return body{Error: Internal("An unexpected error occurred")}
}
