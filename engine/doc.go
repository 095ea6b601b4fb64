// Package engine bridges the affinity executor and the output capture layer
// into the request/response shape callers actually want: "run this engine
// command and hand me back its classified output".
//
// For each command the Engine submits one work item that opens a capture
// scope, issues the engine call, reads back the per-channel text, releases the
// scope and resolves the caller's future. Multiple concurrent callers each get
// their own future; the executor's FIFO guarantees their engine calls never
// overlap even though the futures are created and awaited in any interleaving.
//
// # Usage
//
//	eng := engine.New(dbg, engine.WithLogger(logger))
//	defer eng.Close(context.Background())
//
//	id, out, err := eng.Run(ctx, "threads")
//	if err != nil {
//	    return err
//	}
//	_ = id
//	fmt.Print(out.Normal)
//
// Error and warning channel text is not interleaved into normal output; it is
// surfaced separately via Output.Diagnostic. A failing engine call propagates
// its error through the future alongside whatever text was captured before the
// failure, never swallowed and never a half-written buffer.
package engine
