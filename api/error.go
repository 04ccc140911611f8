package api

import "fmt"

// Error represents the error shape returned by the HTTP API.
type Error struct {
	Reason  string        `json:"reason"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}
