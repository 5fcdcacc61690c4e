package lights

import (
	"math"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
)

func newCeilingLight() *QuadLight {
	// 2x2 light at y=2 facing down: u × v = (0,-4,0)
	return NewQuadLight(
		core.NewVec3(-1, 2, -1),
		core.NewVec3(2, 0, 0),
		core.NewVec3(0, 0, 2),
		material.NewEmissive(core.NewVec3(5, 5, 5)),
	)
}

func TestQuadLight_SampleFromBelow(t *testing.T) {
	light := newCeilingLight()
	point := core.NewVec3(0, 0, 0)

	ls := light.Sample(point, core.NewVec2(0.5, 0.5))

	if ls.Point.Subtract(core.NewVec3(0, 2, 0)).Length() > 1e-9 {
		t.Errorf("Expected sample at quad center, got %v", ls.Point)
	}
	if math.Abs(ls.Distance-2) > 1e-9 {
		t.Errorf("Expected distance 2, got %f", ls.Distance)
	}
	if ls.Emission != core.NewVec3(5, 5, 5) {
		t.Errorf("Expected front face emission, got %v", ls.Emission)
	}

	// area 4, distance 2, cos 1: pdf = 1/4 * 4 / 1
	if math.Abs(ls.PDF-1.0) > 1e-9 {
		t.Errorf("Expected pdf 1, got %f", ls.PDF)
	}
	if light.Type() != LightTypeArea {
		t.Errorf("Expected area light, got %s", light.Type())
	}
}

func TestQuadLight_BackFaceDoesNotEmit(t *testing.T) {
	light := newCeilingLight()

	ls := light.Sample(core.NewVec3(0, 4, 0), core.NewVec2(0.5, 0.5))
	if !ls.Emission.IsZero() {
		t.Errorf("Expected no emission from the back face, got %v", ls.Emission)
	}
}

func TestQuadLight_EdgeOn(t *testing.T) {
	light := newCeilingLight()

	ls := light.Sample(core.NewVec3(5, 2, 0), core.NewVec2(0.5, 0.5))
	if ls.PDF != 0 {
		t.Errorf("Expected zero pdf for an edge-on sample, got %f", ls.PDF)
	}
}
