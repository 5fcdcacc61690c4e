package integrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
	"github.com/df07/go-wavefront-raytracer/pkg/material"
	"github.com/stretchr/testify/require"
)

// fakeLighting succeeds or fails per shading position and echoes its random
// inputs back through the payload so tests can check what was drawn
type fakeLighting struct {
	sampleOK func(p core.Vec3) bool
	emitOK   func(p core.Vec3) bool
	lamp     bool
}

func (f *fakeLighting) SampleLight(randT, randU, randV, time float64, p core.Vec3, bounce int) (LightSample, bool) {
	if f.sampleOK != nil && !f.sampleOK(p) {
		return LightSample{}, false
	}
	return LightSample{
		P:    p.Add(core.NewVec3(0, 2, 0)),
		N:    core.NewVec3(0, -1, 0),
		D:    core.NewVec3(0, 1, 0),
		T:    2,
		Pdf:  1,
		Eval: core.NewVec3(randT, randU, randV),
		Lamp: f.lamp,
	}, true
}

func (f *fakeLighting) DirectEmission(sd *ShaderData, ls *LightSample, ps *PathState, terminate float64) (ShadowRay, BsdfEval, bool, bool) {
	if f.emitOK != nil && !f.emitOK(sd.P) {
		return ShadowRay{}, BsdfEval{}, false, false
	}
	ray := ShadowRay{Ray: core.NewRay(sd.P, ls.D), TMax: ls.T}
	eval := BsdfEval{Diffuse: ls.Eval, Glossy: core.NewVec3(terminate, 0, 0)}
	return ray, eval, ls.Lamp, true
}

// fakeScene is a complete scene: a floor at y=0 below every ray origin,
// a constant background and no occluders unless blocked says so
type fakeScene struct {
	fakeLighting
	floor   material.Material
	bg      core.Vec3
	blocked func(ray ShadowRay) bool
}

func (f *fakeScene) Intersect(ray core.Ray, tMin, tMax float64) (ShaderData, bool) {
	if ray.Direction.Y >= 0 {
		return ShaderData{}, false
	}
	t := -ray.Origin.Y / ray.Direction.Y
	if t < tMin || t > tMax {
		return ShaderData{}, false
	}
	sd := ShaderData{
		P:        ray.At(t),
		N:        core.NewVec3(0, 1, 0),
		I:        ray.Direction,
		T:        t,
		Time:     ray.Time,
		Material: f.floor,
	}
	if f.floor.HasEval() {
		sd.Flag |= SDBsdfHasEval
	}
	return sd, true
}

func (f *fakeScene) Occluded(ray ShadowRay) bool {
	return f.blocked != nil && f.blocked(ray)
}

func (f *fakeScene) BackgroundColor(ray core.Ray) core.Vec3 {
	return f.bg
}

// fakeCamera shoots every ray from above the floor, tilted by film position
type fakeCamera struct{}

func (fakeCamera) GetRay(s, t float64, lens core.Vec2, time float64) core.Ray {
	return core.Ray{
		Origin:    core.NewVec3(s, 1, t),
		Direction: core.NewVec3(0, 2*t-1, -1).Normalize(),
		Time:      time,
	}
}

// fakeFilm collects samples per pixel
type fakeFilm struct {
	mu      sync.Mutex
	samples map[int][]core.Vec3
}

func newFakeFilm() *fakeFilm {
	return &fakeFilm{samples: make(map[int][]core.Vec3)}
}

func (f *fakeFilm) AddSample(pixel int, color core.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[pixel] = append(f.samples[pixel], color)
}

var deviceMatrix = []kernel.Config{
	{GroupSize: 1, Model: kernel.DivergenceTolerant, Workers: 4},
	{GroupSize: 1, Model: kernel.LockStep, Workers: 4},
	{GroupSize: 4, Model: kernel.DivergenceTolerant, Workers: 4},
	{GroupSize: 4, Model: kernel.LockStep, Workers: 4},
	{GroupSize: 64, Model: kernel.DivergenceTolerant, Workers: 2},
	{GroupSize: 64, Model: kernel.LockStep, Workers: 2},
}

func deviceName(cfg kernel.Config) string {
	return fmt.Sprintf("%s/group%d", cfg.Model, cfg.GroupSize)
}

func newDevice(t *testing.T, cfg kernel.Config) *kernel.Device {
	t.Helper()
	d, err := kernel.NewDevice(cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func dispatch(t *testing.T, d *kernel.Device, k kernel.Kernel, globalSize int) {
	t.Helper()
	_, err := d.Dispatch(context.Background(), k, globalSize)
	require.NoError(t, err)
}

// shadedState returns a state whose every slot is active on a diffuse
// surface at x = slot
func shadedState(capacity int, rng core.HashRNG) *SplitState {
	s := NewSplitState(capacity)
	diffuse := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	for slot := 0; slot < capacity; slot++ {
		s.RayState.SetState(slot, kernel.RayActive)
		s.Rng[slot] = rng.PixelHash(slot)
		s.PathState[slot] = PathState{NumSamples: 1, RngOffset: core.PRNGBaseNum}
		s.ShaderData[slot] = ShaderData{
			P:        core.NewVec3(float64(slot), 0, 0),
			N:        core.NewVec3(0, 1, 0),
			Time:     0.5,
			Flag:     SDBsdfHasEval,
			Material: diffuse,
		}
		s.Throughput[slot] = core.NewVec3(1, 1, 1)
		s.Pixel[slot] = slot
	}
	return s
}
