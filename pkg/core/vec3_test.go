package core

import (
	"math"
	"testing"
)

func TestVec3_Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"x cross y", NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
		{"y cross z", NewVec3(0, 1, 0), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
		{"z cross x", NewVec3(0, 0, 1), NewVec3(1, 0, 0), NewVec3(0, 1, 0)},
		{"parallel", NewVec3(2, 0, 0), NewVec3(1, 0, 0), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.Cross(tt.b)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("Expected unit length, got %f", v.Length())
	}

	zero := Vec3{}.Normalize()
	if !zero.IsZero() {
		t.Errorf("Expected zero vector to stay zero, got %v", zero)
	}
}

func TestVec3_MaxComponent(t *testing.T) {
	if got := NewVec3(0.2, 0.9, 0.4).MaxComponent(); got != 0.9 {
		t.Errorf("Expected 0.9, got %f", got)
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 1, 1), NewVec3(0, 0, -2))
	point := ray.At(0.5)
	expected := NewVec3(1, 1, 0)
	if point != expected {
		t.Errorf("Expected %v, got %v", expected, point)
	}
	if ray.Time != 0 {
		t.Errorf("Expected zero time for a static ray, got %f", ray.Time)
	}
}
