package geometry

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

// World is a flat list of shapes tested in order
type World struct {
	Shapes []Shape
}

// NewWorld creates a world from the given shapes
func NewWorld(shapes ...Shape) *World {
	return &World{Shapes: shapes}
}

// Add appends shapes to the world
func (w *World) Add(shapes ...Shape) {
	w.Shapes = append(w.Shapes, shapes...)
}

// Hit returns the closest intersection in [tMin, tMax]
func (w *World) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestSoFar := tMax

	for _, shape := range w.Shapes {
		if hit, ok := shape.Hit(ray, tMin, closestSoFar); ok {
			closest = hit
			closestSoFar = hit.T
		}
	}

	return closest, closest != nil
}

// Occluded reports whether anything blocks the ray in [tMin, tMax]
func (w *World) Occluded(ray core.Ray, tMin, tMax float64) bool {
	for _, shape := range w.Shapes {
		if _, ok := shape.Hit(ray, tMin, tMax); ok {
			return true
		}
	}
	return false
}
