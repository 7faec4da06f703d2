package response

// ErrorBody is the single error shape returned by every JSON endpoint
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response carrying the error kind and message
func Error(statusCode int, kind, message string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      &ErrorBody{Kind: kind, Message: message},
	}
}
