// Package capture multiplexes the engine's single global output stream onto
// per-invocation capture scopes.
//
// A debugging engine has one output callback for the whole process, yet many
// logically distinct commands pass through the worker thread over time. The
// Mux owns a single-slot register holding the currently active Scope; the
// engine's output callback (Mux.Dispatch) classifies each chunk by channel
// kind and appends it to the active scope's buffer for that channel. Output
// arriving while no scope is active is unattributable and discarded.
//
// Because the affinity executor runs one work item at a time, and every
// engine-touching work item opens its scope before issuing commands and closes
// it before completing, at most one scope is ever active and no two commands'
// output can interleave. Dispatch itself may run on an engine-internal
// goroutine, so buffer access is locked against scope release and reads.
//
// Prompt-channel text doubles as user-visible echo: it is recorded on the
// prompt channel as-is and additionally folded into the normal channel after
// un-escaping the engine's markup entities (&lt; and &gt;).
//
// Scope buffers come from a shared pool and are cleared and returned when the
// scope closes; a fresh scope always starts empty on every channel.
package capture
