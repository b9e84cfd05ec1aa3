// Package config loads service configuration from a YAML file, a .env file
// and the process environment, in that order of increasing precedence.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("authmaster", &cfg)
//
// The loader looks for cmd/<service>/config.yml and .env files relative to
// the working directory. Environment variables override file values using
// underscore-separated paths (e.g. SERVER_PORT, AUTH_REQUIRED).
//
// Key lists accept a compact string form so secrets can come from the
// environment without a YAML file:
//
//	AUTH_KEYS="adminToken=s3cret,userToken=other"
//	AUTH_BEARER_KEYS="adminToken,userToken"
package config
