// Package envelope defines the fixed-shape result record returned by every
// issuance, verification and parse operation.
//
// A Result serializes as
//
//	{"data": ..., "success": true, "message": "success", "code": "200"}
//
// Failures always carry "data": null. Callers branch on Success only; the
// message text is diagnostic.
package envelope

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/kbukum/authmaster/errors"
)

// Result codes. Codes are strings mirroring HTTP status classes.
const (
	CodeOK           = "200"
	CodeBadRequest   = "400"
	CodeUnauthorized = "401"
	CodeInternal     = "500"
)

// MessageSuccess is the message carried by every successful result.
const MessageSuccess = "success"

// Result is the uniform result envelope.
type Result[T any] struct {
	Data    T
	Success bool
	Message string
	Code    string
}

// OK returns a successful result carrying data.
func OK[T any](data T) Result[T] {
	return Result[T]{Data: data, Success: true, Message: MessageSuccess, Code: CodeOK}
}

// Fail returns a failed result with the given code and message.
func Fail[T any](code, message string) Result[T] {
	return Result[T]{Code: code, Message: message}
}

// FromError returns a failed result whose message is taken from err.
// AppErrors contribute their message and cause text.
func FromError[T any](code string, err error) Result[T] {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return Fail[T](code, appErr.Text())
	}
	if err == nil {
		return Fail[T](code, "unknown error")
	}
	return Fail[T](code, err.Error())
}

// Unauthorized is the body sent by adapters when they reject a call.
func Unauthorized() Result[any] {
	return Fail[any](CodeUnauthorized, "Unauthorized")
}

// Status maps the result code to an HTTP status, defaulting to 500 for
// unparseable codes.
func (r Result[T]) Status() int {
	n, err := strconv.Atoi(r.Code)
	if err != nil || n < 100 || n > 599 {
		return http.StatusInternalServerError
	}
	return n
}

type wire struct {
	Data    any    `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MarshalJSON emits data as null on failure.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	w := wire{Success: r.Success, Message: r.Message, Code: r.Code}
	if r.Success {
		w.Data = r.Data
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire envelope. Data is left zero when null.
func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var w struct {
		Data    json.RawMessage `json:"data"`
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Code    string          `json:"code"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var data T
	if len(w.Data) > 0 && string(w.Data) != "null" {
		if err := json.Unmarshal(w.Data, &data); err != nil {
			return err
		}
	}
	*r = Result[T]{Data: data, Success: w.Success, Message: w.Message, Code: w.Code}
	return nil
}
