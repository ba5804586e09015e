package components

import (
	"github.com/spaghettifunk/orbis/engine/math"
)

/**
 * @brief A static perspective camera looking at a target.
 * NOTE: Use the setters so the view matrix is rebuilt when needed.
 */
type Camera struct {
	/** @brief The position of this camera. */
	Position math.Vec3
	/** @brief The point the camera looks at. */
	Target math.Vec3
	/** @brief The up direction used to orient the view. */
	Up math.Vec3
	/** @brief The vertical field of view in radians. */
	FovRadians float32
	/** @brief The near clipping plane distance. */
	Near float32
	/** @brief The far clipping plane distance. */
	Far float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/** @brief Cached view matrix, read it through View(). */
	ViewMatrix math.Mat4
}

type CameraLookup struct {
	ID             uint16
	ReferenceCount uint16
	Camera         *Camera
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

// Reset places the camera at (0, 5, 15) looking at the origin with a 45 degree fov.
func (c *Camera) Reset() {
	c.Position = math.NewVec3(0, 5, 15)
	c.Target = math.NewVec3Zero()
	c.Up = math.NewVec3Up()
	c.FovRadians = math.DegToRad(45.0)
	c.Near = 0.1
	c.Far = 100.0
	c.IsDirty = true
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetTarget(target math.Vec3) {
	c.Target = target
	c.IsDirty = true
}

func (c *Camera) SetUp(up math.Vec3) {
	c.Up = up
	c.IsDirty = true
}

// SetPerspective takes the vertical field of view in degrees.
func (c *Camera) SetPerspective(fovDegrees, near, far float32) {
	c.FovRadians = math.DegToRad(fovDegrees)
	c.Near = near
	c.Far = far
}

func (c *Camera) View() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) Projection(aspectRatio float32) math.Mat4 {
	return math.NewMat4Perspective(c.FovRadians, aspectRatio, c.Near, c.Far)
}
