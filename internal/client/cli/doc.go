// Package cli provides the interactive oclus command-line client.
//
// It wires configuration and the HTTP API client into a small REPL. The
// token pair lives only in memory for the session; an expired auth token is
// refreshed transparently by the API client. Passwords are read from the
// terminal without echo.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
