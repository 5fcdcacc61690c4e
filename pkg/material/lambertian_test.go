package material

import (
	"math"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

func TestLambertian_PDFCalculation(t *testing.T) {
	albedo := core.NewVec3(0.8, 0.8, 0.8)
	lambertian := NewLambertian(albedo)

	// Normal pointing up (z-axis)
	normal := core.NewVec3(0, 0, 1)
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: normal,
	}
	ray := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))

	rng := core.NewHashRNG(42)
	for i := 0; i < 100; i++ {
		u, v := rng.Draw2D(7, i, 0)
		scatter, didScatter := lambertian.Scatter(ray, hit, core.NewVec2(u, v))
		if !didScatter {
			continue
		}

		cosTheta := scatter.Scattered.Direction.Normalize().Dot(normal)
		expectedPDF := cosTheta / math.Pi
		if math.Abs(scatter.PDF-expectedPDF) > 1e-10 {
			t.Errorf("PDF mismatch: got %f, expected %f", scatter.PDF, expectedPDF)
		}

		// cosine sampling cancels: weight is exactly the albedo
		weight := scatter.Weight(normal)
		if weight.Subtract(albedo).Length() > 1e-9 {
			t.Errorf("Expected weight %v, got %v", albedo, weight)
		}
	}
}

func TestLambertian_EvaluateBRDF(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	normal := core.NewVec3(0, 1, 0)

	tests := []struct {
		name     string
		out      core.Vec3
		expected core.Vec3
	}{
		{"Above surface", core.NewVec3(0, 1, 0), albedo.Multiply(1.0 / math.Pi)},
		{"Grazing above", core.NewVec3(1, 0.1, 0).Normalize(), albedo.Multiply(1.0 / math.Pi)},
		{"Below surface", core.NewVec3(0, -1, 0), core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lambertian.EvaluateBRDF(core.NewVec3(0, -1, 0), tt.out, normal)
			if got.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}

	if !lambertian.HasEval() {
		t.Error("Lambertian must support BSDF evaluation")
	}
}
