// Package api is the HTTP gateway to the FinBroker platform.
//
// Every outbound request re-reads the bearer credential from the session at
// call time and carries it as an Authorization header. A 401 from any
// endpoint triggers the one global recovery action (session expiry plus the
// login-boundary hook) and is still returned to the caller as
// ErrUnauthorized so in-flight work can clean up. All other failures map
// onto the small sentinel taxonomy in errors.go and are never retried here.
package api
