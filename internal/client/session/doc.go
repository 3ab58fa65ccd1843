// Package session owns the process-wide bearer credential.
//
// The credential has single-writer semantics: only the login flow
// (SetToken) and the unauthorized handler (Expire) may change it. Every
// outbound request must re-read the token at call time instead of caching
// it, so a rotation takes effect on the next call.
package session
