// Package response provides HTTP response utilities.
package response

import (
	"encoding/json"
	"net/http"
)

// encodeFailure is the canned body sent when payload marshaling fails. It is
// a constant so the fallback itself cannot fail.
const encodeFailure = `{"error":{"code":"INTERNAL_SERVER_ERROR","message":"failed to encode response"}}`

// JSON writes a JSON response with the given status code and data. The
// payload is marshaled before any byte hits the wire, so an encoding failure
// still yields a well-formed 500 instead of a truncated body under the
// original status.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.WriteHeader(statusCode)
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailure))
		return
	}

	w.WriteHeader(statusCode)
	_, _ = w.Write(payload)
}

// Error writes an error response with the given status code and error details.
func Error(w http.ResponseWriter, statusCode int, code, message string, requestID string) {
	ErrorWithDetails(w, statusCode, code, message, nil, requestID)
}

// ErrorWithDetails writes an error response with additional details.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}, requestID string) {
	JSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}
