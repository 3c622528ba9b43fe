package messagesapi

// ErrorDetail is the body of a Messages-API error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body returned for both 4xx/5xx HTTP errors and
// for the SSE "error" event frame. The field is named Err, not Error, so it
// doesn't collide with the Error() method below.
type ErrorResponse struct {
	Type string      `json:"type"` // always "error"
	Err  ErrorDetail `json:"error"`
}

// Error implements the error interface so ErrorResponse can be returned and
// type-asserted through ordinary Go error handling.
func (e *ErrorResponse) Error() string {
	return e.Err.Message
}

// NewErrorResponse builds an ErrorResponse of the given taxonomy type.
func NewErrorResponse(errType, message string) *ErrorResponse {
	return &ErrorResponse{
		Type: "error",
		Err: ErrorDetail{
			Type:    errType,
			Message: message,
		},
	}
}
