package apperror

// ErrorCode is the system-level error category. These map one-to-one onto the
// `error` field of JSON error responses.
type ErrorCode string

const (
	CodeValidationFailed ErrorCode = "validation_error"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeNotFound         ErrorCode = "not_found"
	CodeConflict         ErrorCode = "conflict"
	CodeInternalError    ErrorCode = "internal_server_error"
)

// BusinessCode narrows an ErrorCode to a specific business reason.
type BusinessCode string

const (
	BusinessCodeGeneral BusinessCode = "GENERAL"

	BusinessCodeInvalidFormat      BusinessCode = "INVALID_FORMAT"
	BusinessCodeEmailTaken         BusinessCode = "EMAIL_TAKEN"
	BusinessCodePasswordTooShort   BusinessCode = "PASSWORD_TOO_SHORT"
	BusinessCodeInvalidCredentials BusinessCode = "INVALID_CREDENTIALS"

	BusinessCodeUserNotFound      BusinessCode = "USER_NOT_FOUND"
	BusinessCodeRecipeNotFound    BusinessCode = "RECIPE_NOT_FOUND"
	BusinessCodeAttributeNotFound BusinessCode = "ATTRIBUTE_NOT_FOUND"

	BusinessCodeInvalidImage BusinessCode = "INVALID_IMAGE"
)
