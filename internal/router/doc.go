// Package router parses inbound channel text and dispatches it: session
// keywords directly, numeric module indexes to the module's slot. It is also
// the panic recovery and rate limiting boundary for command handling.
package router
