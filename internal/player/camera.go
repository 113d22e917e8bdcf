package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/world"
)

// Camera is the observer the streaming window follows. Yaw is measured on
// the XZ plane from +X, pitch positive up, both in radians.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
}

// pitchLimit keeps the view off the poles so the view matrix stays stable.
const pitchLimit = float32(89.0 * math.Pi / 180.0)

// NewCamera creates a camera at position looking along yaw/pitch.
func NewCamera(position mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{Position: position, Yaw: yaw, Pitch: pitch}
	c.clampPitch()
	return c
}

// Rotate applies yaw/pitch deltas, constraining pitch.
func (c *Camera) Rotate(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch += dPitch
	c.clampPitch()
}

func (c *Camera) clampPitch() {
	if c.Pitch > pitchLimit {
		c.Pitch = pitchLimit
	}
	if c.Pitch < -pitchLimit {
		c.Pitch = -pitchLimit
	}
}

// Direction returns the unit view direction.
func (c *Camera) Direction() mgl32.Vec3 {
	yawSin, yawCos := math.Sincos(float64(c.Yaw))
	pitchSin, pitchCos := math.Sincos(float64(c.Pitch))
	return mgl32.Vec3{
		float32(yawCos * pitchCos),
		float32(pitchSin),
		float32(yawSin * pitchCos),
	}
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Direction()), mgl32.Vec3{0, 1, 0})
}

// ChunkPos returns the chunk-grid coordinate the camera currently occupies.
func (c *Camera) ChunkPos() world.ChunkCoord {
	return world.WorldToChunkPos(
		int(math.Floor(float64(c.Position.X()))),
		int(math.Floor(float64(c.Position.Y()))),
		int(math.Floor(float64(c.Position.Z()))),
	)
}

// Projection holds the perspective parameters used for frustum extraction.
type Projection struct {
	FovYDeg float32
	Aspect  float32
	Near    float32
	Far     float32
}

// Matrix returns the projection matrix.
func (p Projection) Matrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.FovYDeg), p.Aspect, p.Near, p.Far)
}

// ViewProjection combines projection and view for frustum plane extraction.
func (c *Camera) ViewProjection(p Projection) mgl32.Mat4 {
	return p.Matrix().Mul4(c.ViewMatrix())
}
