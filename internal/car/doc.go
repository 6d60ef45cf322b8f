// Package car is the vehicle dynamics model: a hull body with four wheel
// bodies on steerable revolute joints, and a per-wheel tire friction step
// that turns engine, brake and steering inputs into forces.
//
// Wheels are ordered front-left, front-right, rear-left, rear-right. Gas
// drives the rear pair, Steer turns the front pair and Brake acts on all
// four.
package car
