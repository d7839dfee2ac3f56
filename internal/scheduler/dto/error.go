package dto

// ErrorResponse is the error body returned by all API handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}
