package serviceerror

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

// ServiceError is the discriminated error result returned by every service
// operation. Services never panic or leak raw errors across the facade
// boundary; callers branch on Code.
type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "CMS-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "CMS-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	// TechnicalError covers id decryption/encryption failures. It is raised
	// before any store access is attempted.
	TechnicalError = ServiceError{
		Type:             ServerErrorType,
		Code:             "CMS-5002",
		Error:            "technical_error",
		ErrorDescription: "Technical error while processing identifiers",
	}

	// LogicalError covers entity-not-found, parent/authorisation linkage
	// mismatches and inconsistent consent data.
	LogicalError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CMS-4004",
		Error:            "logical_error",
		ErrorDescription: "Requested entity not found or request is inconsistent",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CMS-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CMS-4001",
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// IsLogical reports whether the error is the logical-error kind.
func (e *ServiceError) IsLogical() bool {
	return e != nil && e.Code == LogicalError.Code
}

// IsTechnical reports whether the error is the technical-error kind.
func (e *ServiceError) IsTechnical() bool {
	return e != nil && e.Code == TechnicalError.Code
}
