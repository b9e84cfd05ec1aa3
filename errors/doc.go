// Package errors provides the error taxonomy shared by the credential
// verification components.
//
// Every failure raised inside the core is an *AppError carrying one of five
// kinds:
//
//   - CONFIGURATION_ERROR    key name absent from the secret registry
//   - CREDENTIAL_MISSING     no extractable credential
//   - CREDENTIAL_MALFORMED   wrong scheme, bad base64, missing delimiter
//   - VERIFICATION_FAILED    bad signature, expired, wrong algorithm
//   - INTERNAL_ERROR         unexpected failure while signing or parsing
//
// Core operations never let an AppError escape; they fold it into a result
// envelope (see auth/envelope). The kind is kept for diagnostics only.
package errors
