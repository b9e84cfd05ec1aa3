package errors

// ErrorCode represents a machine-readable error kind.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates a key name that is not registered.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeCredentialMissing indicates no credential could be extracted.
	ErrCodeCredentialMissing ErrorCode = "CREDENTIAL_MISSING"
	// ErrCodeCredentialMalformed indicates a credential with a bad shape.
	ErrCodeCredentialMalformed ErrorCode = "CREDENTIAL_MALFORMED"
	// ErrCodeVerificationFailed indicates a credential that did not verify.
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	// ErrCodeValidation indicates a request or config that failed validation.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
