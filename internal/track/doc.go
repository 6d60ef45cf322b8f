// Package track generates closed-loop race tracks.
//
// A Generator places randomized checkpoints on a circle, runs a heading
// limited tracer through them for several laps, cuts exactly one lap out of
// the trace and accepts it only if the head and tail join within one detail
// step. Successful tracks expose the centerline Path used by the state
// extractor and race bookkeeping, plus hard-turn border flags and tile
// geometry for plotting.
package track
