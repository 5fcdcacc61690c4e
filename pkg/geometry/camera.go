package geometry

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually 0,1,0)
	VFov          float64   // Vertical field of view in degrees
	AspectRatio   float64   // Width / height
	Aperture      float64   // Lens diameter, 0 for a pinhole camera
	FocusDistance float64   // Distance to the focal plane, 0 means |LookAt-Center|
}

// Camera generates primary rays through a perspective view transform
type Camera struct {
	config     CameraConfig
	camToWorld mgl64.Mat4
	halfHeight float64
	halfWidth  float64
	focusDist  float64
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	if config.AspectRatio <= 0 {
		config.AspectRatio = 1
	}
	if config.Up.IsZero() {
		config.Up = core.NewVec3(0, 1, 0)
	}

	focusDist := config.FocusDistance
	if focusDist <= 0 {
		focusDist = config.LookAt.Subtract(config.Center).Length()
	}

	view := mgl64.LookAtV(toMgl(config.Center), toMgl(config.LookAt), toMgl(config.Up))
	halfHeight := math.Tan(mgl64.DegToRad(config.VFov) / 2)

	return &Camera{
		config:     config,
		camToWorld: view.Inv(),
		halfHeight: halfHeight,
		halfWidth:  halfHeight * config.AspectRatio,
		focusDist:  focusDist,
	}
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1
// and (0, 0) is the lower left corner. lens is a uniform sample used only
// when the camera has an aperture.
func (c *Camera) GetRay(s, t float64, lens core.Vec2, time float64) core.Ray {
	// Camera space looks down -Z
	x := (2*s - 1) * c.halfWidth
	y := (2*t - 1) * c.halfHeight
	dir := c.camToWorld.Mul4x1(mgl64.Vec4{x, y, -1, 0}).Vec3()

	origin := c.config.Center
	direction := fromMgl(dir)

	if c.config.Aperture > 0 {
		focus := origin.Add(direction.Multiply(c.focusDist))
		disk := core.SamplePointInUnitDisk(lens)
		radius := c.config.Aperture / 2
		offset := c.camToWorld.Mul4x1(mgl64.Vec4{disk.X * radius, disk.Y * radius, 0, 0}).Vec3()
		origin = origin.Add(fromMgl(offset))
		direction = focus.Subtract(origin)
	}

	return core.Ray{Origin: origin, Direction: direction.Normalize(), Time: time}
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
