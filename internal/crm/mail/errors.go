package mail

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	// Code and Message come from Brevo's error body when it has one.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("brevo: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("brevo: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Message}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
