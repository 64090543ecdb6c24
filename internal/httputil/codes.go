package httputil

// Machine-readable error codes returned alongside human-readable messages.
// Clients branch on these, never on message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeResetTokenExpired  = "RESET_TOKEN_EXPIRED"
	CodeResetTokenRequired = "RESET_TOKEN_REQUIRED"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
)
