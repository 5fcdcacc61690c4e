package scene

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/geometry"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// NewDefaultScene creates a default scene with spheres, ground, and camera
func NewDefaultScene(width, height int) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:        core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:            core.NewVec3(0, 1, 0),    // Standard up direction
		AspectRatio:   float64(width) / float64(height),
		VFov:          40.0, // Narrower field of view for focus effect
		Aperture:      0.05, // Slight depth of field blur
		FocusDistance: 0.0,  // Auto-calculate focus distance
	}

	samplingConfig := SamplingConfig{
		Width:                     width,
		Height:                    height,
		SamplesPerPixel:           64,
		MaxDepth:                  8,
		RussianRouletteMinBounces: 3,
	}

	s := &Scene{
		Camera:         geometry.NewCamera(cameraConfig),
		CameraConfig:   cameraConfig,
		World:          geometry.NewWorld(),
		TopColor:       core.NewVec3(0.5, 0.7, 1.0), // blue sky
		BottomColor:    core.NewVec3(1.0, 1.0, 1.0), // white ground
		SamplingConfig: samplingConfig,
	}

	// Create materials
	lambertianGreen := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	metalSilver := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.0)
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	sphereCenter := geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5, lambertianRed)
	sphereLeft := geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5, metalSilver)
	sphereRight := geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5, metalGold)
	smallBlue := geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.25, lambertianBlue)

	// Large but finite ground
	groundQuad := NewGroundQuad(core.NewVec3(0, 0, 0), 10000.0, lambertianGreen)

	s.World.Add(sphereCenter, sphereLeft, sphereRight, smallBlue, groundQuad)

	// pos [30, 30.5, 15], r: 10, emit: [15.0, 14.0, 13.0]
	s.AddSphereLight(
		core.NewVec3(30, 30.5, 15),     // position
		10,                             // radius
		core.NewVec3(15.0, 14.0, 13.0), // emission
	)

	// Warm fill lamp in front of the spheres
	s.AddPointLight(core.NewVec3(-1.5, 2.0, 0.5), core.NewVec3(1.5, 1.2, 0.9))

	return s
}
