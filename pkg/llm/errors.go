package llm

import "fmt"

// APIError is the error object chat-completions APIs return, either as
// the body of a non-2xx response or embedded in a streamed chunk.
type APIError struct {
	// StatusCode of the HTTP response, zero for in-stream errors.
	StatusCode int `json:"-"`

	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// ErrorResponse is the envelope wrapping an APIError on non-2xx
// responses.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}
