// Package carstate projects a car's kinematics onto the track centerline and
// produces the normalized, road-relative observation a controller is fed
// every sample.
//
// Generate is a pure function of its inputs. It reads the car through the
// Vehicle interface so the physics model never depends on this package.
package carstate
