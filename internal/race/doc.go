// Package race runs a single-threaded race on a generated track: it owns the
// physics world and the cars, tracks each car's nearest centerline index and
// lap times, feeds controllers at their cadence and ranks the field.
//
// A tick is strictly ordered: scenario hook, index and lap bookkeeping,
// controller updates, tire forces for every car, then one world step.
package race
