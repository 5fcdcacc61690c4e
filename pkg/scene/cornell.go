package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewCornellScene creates a classic Cornell box scene with quad walls and area lighting
func NewCornellScene(width, height int) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:        core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:            core.NewVec3(0, 1, 0),        // Standard up direction
		AspectRatio:   float64(width) / float64(height),
		VFov:          40.0, // Field of view
		Aperture:      0.0,  // No depth of field for Cornell box
		FocusDistance: 0.0,  // Auto-calculate focus distance
	}

	samplingConfig := SamplingConfig{
		Width:                     width,
		Height:                    height,
		SamplesPerPixel:           128,
		MaxDepth:                  16,
		RussianRouletteMinBounces: 4,
	}

	s := &Scene{
		Camera:         geometry.NewCamera(cameraConfig),
		CameraConfig:   cameraConfig,
		World:          geometry.NewWorld(),
		TopColor:       core.NewVec3(0.0, 0.0, 0.0), // Black background
		BottomColor:    core.NewVec3(0.0, 0.0, 0.0), // Black background
		SamplingConfig: samplingConfig,
	}

	// Create materials
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units)
	boxSize := 555.0

	// Floor (white) - XZ plane at y=0
	floor := geometry.NewQuad(
		core.NewVec3(0, 0, 0),       // corner
		core.NewVec3(boxSize, 0, 0), // u vector (X direction)
		core.NewVec3(0, 0, boxSize), // v vector (Z direction)
		white,
	)

	// Ceiling (white) - XZ plane at y=boxSize
	ceiling := geometry.NewQuad(
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
		white,
	)

	// Back wall (white) - XY plane at z=boxSize
	backWall := geometry.NewQuad(
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, boxSize, 0),
		white,
	)

	// Left wall (red) - YZ plane at x=0
	leftWall := geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
		red,
	)

	// Right wall (green) - YZ plane at x=boxSize
	rightWall := geometry.NewQuad(
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(0, 0, boxSize),
		green,
	)

	s.World.Add(floor, ceiling, backWall, leftWall, rightWall)

	// Ceiling light, slightly below the ceiling and facing down
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	s.AddQuadLight(
		core.NewVec3(lightOffset, boxSize-1, lightOffset), // corner
		core.NewVec3(lightSize, 0, 0),                     // u vector (X direction)
		core.NewVec3(0, 0, lightSize),                     // v vector (Z direction)
		core.NewVec3(15.0, 15.0, 15.0),                    // bright white emission
	)

	// Left sphere (smaller, metallic)
	leftSphere := geometry.NewSphere(
		core.NewVec3(185, 82.5, 169),
		82.5,
		material.NewMetal(core.NewVec3(0.8, 0.8, 0.9), 0.0),
	)

	// Right sphere (larger, diffuse white)
	rightSphere := geometry.NewSphere(
		core.NewVec3(370, 90, 351),
		90,
		white,
	)

	s.World.Add(leftSphere, rightSphere)

	return s
}
