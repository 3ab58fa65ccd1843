// Package common contains shared constants and small helpers used across
// FinBroker client components.
package common

// AuthHeaderName is the HTTP header carrying the bearer credential on
// outbound requests.
const AuthHeaderName = "Authorization"

// BearerPrefix prefixes the credential value inside AuthHeaderName.
const BearerPrefix = "Bearer "
