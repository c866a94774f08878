package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BookingStatusRequest is the body of PUT /bookings/:id. NewData is stored
// as the booking's data field whatever its shape.
type BookingStatusRequest struct {
	NewData interface{} `json:"newData"`
}
