package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// CapacityError signals a configured linking limit was reached. The message
// distinguishes which limit (institutions per user vs accounts per
// institution) so clients can disambiguate.
type CapacityError struct {
	ErrorMessage
}

type DatabaseError struct {
	ErrorMessage
	Operation string
}

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

type EncryptionError struct {
	ErrorMessage
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewCapacityError(message string) *CapacityError {
	return &CapacityError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}

func NewEncryptionError(message string) *EncryptionError {
	return &EncryptionError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}
