// Package validation provides input validation for authmaster requests and
// configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Failures are returned as
// *errors.AppError with code VALIDATION_ERROR.
//
// # Struct Tag Validation
//
//	type VerifyRequest struct {
//	    Token   string `json:"token" validate:"required"`
//	    KeyName string `json:"keyName" validate:"required,keyname"`
//	}
//	err := validation.Validate(req)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.KeyName("keys[0].name", name).Expiry("default_expires_in", ttl)
//	if err := v.Validate(); err != nil { ... }
package validation
