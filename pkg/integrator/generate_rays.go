package integrator

import (
	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/kernel"
)

// Batch is the range of film pixels covered by one wave
type Batch struct {
	FirstPixel int
	NumPixels  int
	Sample     int
	NumSamples int
}

// GenerateRays starts a fresh camera path in every slot of the batch. Slot i
// traces pixel FirstPixel+i; slots past the batch are left inactive.
type GenerateRays struct {
	State  *SplitState
	Camera Camera
	RNG    core.HashRNG
	Config Config
	Width  int
	Height int
	Batch  Batch
}

func (k *GenerateRays) Name() string { return "generate_rays" }

func (k *GenerateRays) Run(t *kernel.Thread) {
	slot, exit := k.State.slotOf(t)
	if exit || slot == kernel.EmptySlot {
		return
	}

	s := k.State
	s.RayState.ClearFlag(slot, kernel.FlagShadowRayCastAO|kernel.FlagShadowRayCastDL)
	if slot >= k.Batch.NumPixels {
		s.RayState.SetState(slot, kernel.RayInactive)
		s.Pixel[slot] = -1
		return
	}

	pixel := k.Batch.FirstPixel + slot
	x, y := pixel%k.Width, pixel/k.Width

	ps := PathState{
		Sample:     k.Batch.Sample,
		NumSamples: k.Batch.NumSamples,
		RngOffset:  core.PRNGBaseNum,
	}
	hash := k.RNG.PixelHash(pixel)

	filterU, filterV := k.RNG.Draw2D(hash, ps.Sample, core.PRNGFilterU)
	lensU, lensV := k.RNG.Draw2D(hash, ps.Sample, core.PRNGLensU)
	time := 0.0
	if k.Config.MotionBlur {
		time = k.RNG.Draw1D(hash, ps.Sample, core.PRNGTime)
	}

	// Film rows run top to bottom, camera t runs bottom to top
	u := (float64(x) + filterU) / float64(k.Width)
	v := 1 - (float64(y)+filterV)/float64(k.Height)

	s.Rng[slot] = hash
	s.PathState[slot] = ps
	s.Ray[slot] = k.Camera.GetRay(u, v, core.NewVec2(lensU, lensV), time)
	s.Throughput[slot] = core.NewVec3(1, 1, 1)
	s.L[slot] = PathRadiance{}
	s.ShaderData[slot] = ShaderData{}
	s.LightRay[slot] = ShadowRay{}
	s.BsdfEval[slot] = BsdfEval{}
	s.IsLamp[slot] = false
	s.Pixel[slot] = pixel
	s.RayState.SetState(slot, kernel.RayRegenerated)
}
