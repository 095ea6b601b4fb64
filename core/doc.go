// Package core provides the foundational domain types and interfaces used by
// DbgMesh. It defines the core abstractions for:
//
//   - Debugger (the single-threaded engine being driven)
//   - Output channels (classified engine output: normal, error, warning, ...)
//   - Command outputs (per-channel accumulated text returned to callers)
//   - Transcript records and a pluggable history store
//
// The package intentionally keeps implementation concerns (scheduling, output
// multiplexing, concrete engine adapters) out of scope, exposing small
// interfaces so the affinity, capture and engine packages can depend on shared
// types without importing each other.
package core
