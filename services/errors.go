package services

// ValidationError is returned when a required field is missing or malformed
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError is returned for unknown RFQ, quote or offender references
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError is returned when an operation is not permitted in the
// current RFQ status
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ForbiddenError is returned when the caller does not own the resource
type ForbiddenError struct {
	Code    string
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}
