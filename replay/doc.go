// Package replay implements the deferred-rendering core of mapscene: an
// instruction-recording and replay engine for 2D vector map layers.
//
// A Recorder accumulates two parallel instruction streams as geometries are
// submitted — one ordered for painting, one ordered (after Finish) for
// topmost-first hit detection — over a shared, append-only coordinate
// buffer with extent-based simplification. Replay executes a stream against
// a Surface and a view transform, any number of times, with style-change
// deduplication, draw-call batching, per-feature culling and label/icon
// decluttering.
//
// The instruction streams are a small bytecode: each Instruction carries an
// Op tag selecting a fixed operand layout, and the interpreter dispatches
// with an exhaustive switch. Unknown opcodes are skipped, never an error.
package replay
