package acq

import (
	"fmt"
	"strings"
)

// APIError is a single vendor error entry.
type APIError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

type errorResponse struct {
	ErrorList struct {
		Errors []APIError `json:"error"`
	} `json:"errorList"`
}

// RequestError carries the HTTP status and any decoded vendor errors for a
// failed API call.
type RequestError struct {
	Status int
	Errors []APIError
}

func (e *RequestError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, apiErr := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", apiErr.Code, apiErr.Message))
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, strings.Join(msgs, "; "))
}
