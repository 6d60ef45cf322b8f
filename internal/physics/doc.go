// Package physics adapts the external 2D rigid-body engine
// (github.com/ByteArena/box2d) to the simulation.
//
// The World owns every body and joint. Callers hold opaque BodyID and
// JointID handles and release them with DestroyBody / DestroyJoint, so a
// car never keeps a pointer into an engine object that may already be gone.
package physics
