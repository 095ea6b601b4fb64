// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing output chunks and scripted engine responses.
// These helpers are intentionally minimal and not intended for production
// usage.
package testutil
