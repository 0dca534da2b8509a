package auth

// HTTP header constants for authentication.
const (
	// HeaderAuthorization is the Authorization header name.
	HeaderAuthorization = "Authorization"

	// HeaderWWWAuthenticate is the WWW-Authenticate header name.
	HeaderWWWAuthenticate = "WWW-Authenticate"

	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"
)

// BearerScheme is the authorization scheme accepted by ExtractAccessToken.
// It is matched case-insensitively.
const BearerScheme = "bearer"

// Outcome label values used in metrics and spans.
const (
	OutcomeAuthenticated      = "authenticated"
	OutcomeMissingHeader      = "missing_header"
	OutcomeInvalidHeader      = "invalid_header"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeMissingUsername    = "missing_username"
	OutcomeServerError        = "server_error"
	OutcomeUnreadableResponse = "unreadable_response"
	OutcomeUnknown            = "unknown"
)
