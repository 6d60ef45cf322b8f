package physics

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/spatial/r2"
)

// maxPolygonVertices matches the engine's polygon vertex limit.
const maxPolygonVertices = 8

// BodyID is an opaque handle to a body owned by a World.
type BodyID int

// JointID is an opaque handle to a revolute joint owned by a World.
type JointID int

// FixtureDef describes one convex polygon attached to a body.
type FixtureDef struct {
	Vertices     []r2.Vec // local coordinates, at most 8, counter-clockwise
	Density      float64
	Restitution  float64
	CategoryBits uint16 // zero keeps the engine default
	MaskBits     uint16 // zero keeps the engine default
}

// BodyDef describes a dynamic body.
type BodyDef struct {
	Position r2.Vec
	Angle    float64
	Fixtures []FixtureDef
}

// RevoluteJointDef describes a motorised, limited hinge between two bodies.
type RevoluteJointDef struct {
	BodyA, BodyB   BodyID
	LocalAnchorA   r2.Vec
	LocalAnchorB   r2.Vec
	EnableMotor    bool
	EnableLimit    bool
	MaxMotorTorque float64
	MotorSpeed     float64
	LowerAngle     float64
	UpperAngle     float64
}

// StepConfig holds the solver iteration counts used by Step.
type StepConfig struct {
	VelocityIterations int
	PositionIterations int
}

type jointEntry struct {
	joint        *box2d.B2RevoluteJoint
	bodyA, bodyB BodyID
}

// World is an arena of bodies and joints on top of a zero-gravity
// top-down box2d world.
type World struct {
	world     box2d.B2World
	step      StepConfig
	bodies    map[BodyID]*box2d.B2Body
	joints    map[JointID]*jointEntry
	nextBody  BodyID
	nextJoint JointID
}

// NewWorld creates an empty world.
func NewWorld(step StepConfig) *World {
	if step.VelocityIterations < 1 {
		step.VelocityIterations = 8
	}
	if step.PositionIterations < 1 {
		step.PositionIterations = 3
	}
	return &World{
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		step:   step,
		bodies: make(map[BodyID]*box2d.B2Body),
		joints: make(map[JointID]*jointEntry),
	}
}

func toB2(v r2.Vec) box2d.B2Vec2 { return box2d.MakeB2Vec2(v.X, v.Y) }

func fromB2(v box2d.B2Vec2) r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// CreateBody adds a dynamic body with its fixtures and returns its handle.
func (w *World) CreateBody(def BodyDef) (BodyID, error) {
	for i, f := range def.Fixtures {
		if n := len(f.Vertices); n < 3 || n > maxPolygonVertices {
			return 0, fmt.Errorf("fixture %d: polygon needs 3..%d vertices, got %d", i, maxPolygonVertices, n)
		}
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = box2d.B2BodyType.B2_dynamicBody
	bd.Position = toB2(def.Position)
	bd.Angle = def.Angle
	body := w.world.CreateBody(&bd)

	for _, f := range def.Fixtures {
		verts := make([]box2d.B2Vec2, len(f.Vertices))
		for i, v := range f.Vertices {
			verts[i] = toB2(v)
		}
		shape := box2d.MakeB2PolygonShape()
		shape.Set(verts, len(verts))

		fd := box2d.MakeB2FixtureDef()
		fd.Shape = &shape
		fd.Density = f.Density
		fd.Restitution = f.Restitution
		if f.CategoryBits != 0 {
			fd.Filter.CategoryBits = f.CategoryBits
		}
		if f.MaskBits != 0 {
			fd.Filter.MaskBits = f.MaskBits
		}
		body.CreateFixtureFromDef(&fd)
	}

	w.nextBody++
	id := w.nextBody
	w.bodies[id] = body
	return id, nil
}

// CreateRevoluteJoint hinges two existing bodies together.
func (w *World) CreateRevoluteJoint(def RevoluteJointDef) (JointID, error) {
	a, okA := w.bodies[def.BodyA]
	b, okB := w.bodies[def.BodyB]
	if !okA || !okB {
		return 0, fmt.Errorf("revolute joint: unknown body %d or %d", def.BodyA, def.BodyB)
	}

	jd := box2d.MakeB2RevoluteJointDef()
	jd.BodyA = a
	jd.BodyB = b
	jd.LocalAnchorA = toB2(def.LocalAnchorA)
	jd.LocalAnchorB = toB2(def.LocalAnchorB)
	jd.EnableMotor = def.EnableMotor
	jd.EnableLimit = def.EnableLimit
	jd.MaxMotorTorque = def.MaxMotorTorque
	jd.MotorSpeed = def.MotorSpeed
	jd.LowerAngle = def.LowerAngle
	jd.UpperAngle = def.UpperAngle

	joint, ok := w.world.CreateJoint(&jd).(*box2d.B2RevoluteJoint)
	if !ok {
		return 0, fmt.Errorf("revolute joint: engine returned unexpected joint type")
	}

	w.nextJoint++
	id := w.nextJoint
	w.joints[id] = &jointEntry{joint: joint, bodyA: def.BodyA, bodyB: def.BodyB}
	return id, nil
}

// DestroyJoint releases a joint. Unknown handles are ignored.
func (w *World) DestroyJoint(id JointID) {
	entry, ok := w.joints[id]
	if !ok {
		return
	}
	w.world.DestroyJoint(entry.joint)
	delete(w.joints, id)
}

// DestroyBody releases a body together with any joint still attached to it.
// Unknown handles are ignored.
func (w *World) DestroyBody(id BodyID) {
	body, ok := w.bodies[id]
	if !ok {
		return
	}
	for jid, entry := range w.joints {
		if entry.bodyA == id || entry.bodyB == id {
			w.DestroyJoint(jid)
		}
	}
	w.world.DestroyBody(body)
	delete(w.bodies, id)
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int { return len(w.bodies) }

// JointCount returns the number of live joints.
func (w *World) JointCount() int { return len(w.joints) }

// Step advances the engine by dt seconds.
func (w *World) Step(dt float64) {
	w.world.Step(dt, w.step.VelocityIterations, w.step.PositionIterations)
}

// Position returns the body origin in world coordinates.
func (w *World) Position(id BodyID) r2.Vec {
	if b, ok := w.bodies[id]; ok {
		return fromB2(b.GetPosition())
	}
	return r2.Vec{}
}

// Angle returns the body rotation in radians.
func (w *World) Angle(id BodyID) float64 {
	if b, ok := w.bodies[id]; ok {
		return b.GetAngle()
	}
	return 0
}

// LinearVelocity returns the body origin velocity.
func (w *World) LinearVelocity(id BodyID) r2.Vec {
	if b, ok := w.bodies[id]; ok {
		return fromB2(b.GetLinearVelocity())
	}
	return r2.Vec{}
}

// AngularVelocity returns the body yaw rate in rad/s.
func (w *World) AngularVelocity(id BodyID) float64 {
	if b, ok := w.bodies[id]; ok {
		return b.GetAngularVelocity()
	}
	return 0
}

// WorldVector rotates a body-local direction into world coordinates.
func (w *World) WorldVector(id BodyID, local r2.Vec) r2.Vec {
	if b, ok := w.bodies[id]; ok {
		return fromB2(b.GetWorldVector(toB2(local)))
	}
	return r2.Vec{}
}

// ApplyForceToCenter applies force at the body's centre of mass and wakes it.
func (w *World) ApplyForceToCenter(id BodyID, force r2.Vec) {
	if b, ok := w.bodies[id]; ok {
		b.ApplyForceToCenter(toB2(force), true)
	}
}

// SetTransform teleports a body and clears its velocities.
func (w *World) SetTransform(id BodyID, pos r2.Vec, angle float64) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	b.SetTransform(toB2(pos), angle)
	b.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	b.SetAngularVelocity(0)
}

// JointAngle returns the relative angle of body B to body A.
func (w *World) JointAngle(id JointID) float64 {
	if e, ok := w.joints[id]; ok {
		return e.joint.GetJointAngle()
	}
	return 0
}

// SetMotorSpeed sets the joint motor target speed in rad/s.
func (w *World) SetMotorSpeed(id JointID, speed float64) {
	if e, ok := w.joints[id]; ok {
		e.joint.SetMotorSpeed(speed)
	}
}
