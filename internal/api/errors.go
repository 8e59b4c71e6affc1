package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// RequestError is a non-2xx response from the server, carrying the
// body's message field verbatim when one was present.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func newRequestError(status int, body []byte) *RequestError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		message = payload.Message
		if message == "" {
			message = payload.Error
		}
	}
	if message == "" {
		message = http.StatusText(status)
		if message == "" {
			message = "request failed"
		}
	}
	return &RequestError{Status: status, Message: message}
}

// ErrorMessage extracts the user-facing message from any error returned
// by the client: the server's own message for a RequestError, the plain
// error text otherwise. Stores surface this string to their views.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, status int) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == status
}
