// Package cli provides the interactive FinBroker command-line client.
//
// It wires configuration, the local session store, the API gateway, the
// resource handle cache, and an interactive REPL. Typical flow: restore or
// prompt for a session, start the background moderation watcher, and
// execute user commands.
//
// Key features:
//   - Login / Logout against the platform
//   - Stage / replace / confirm / remove uploads
//   - List uploads filtered by context
//   - Resolve protected resources (avatars) through the handle cache
//   - Download confirmed documents
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
