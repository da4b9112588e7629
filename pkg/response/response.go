package response

// Response represents a standard API response format
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"` // per-field validation messages
}

// Success returns a standard success response wrapping the data
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// SuccessMessage is Success with a human readable message attached.
func SuccessMessage(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Error returns a standard error response wrapping the error message
func Error(message string) Response {
	return Response{Success: false, Message: message}
}

// ValidationError carries the offending fields alongside the message.
func ValidationError(message string, fields map[string]string) Response {
	return Response{Success: false, Message: message, Errors: fields}
}
