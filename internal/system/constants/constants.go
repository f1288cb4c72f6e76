package constants

const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	InstanceIDHeaderName    = "Instance-ID"
	ContentTypeJSON         = "application/json"

	// APIBasePath is the prefix for all CMS endpoints.
	APIBasePath = "/api/v1"

	// DefaultInstanceID is the fallback multi-tenant partition key when the
	// caller does not supply one.
	DefaultInstanceID = "UNDEFINED"

	// Aliases for convenience
	HeaderContentType = ContentTypeHeaderName
	HeaderInstanceID  = InstanceIDHeaderName
)
