package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashRNG_Deterministic(t *testing.T) {
	a := NewHashRNG(7)
	b := NewHashRNG(7)

	for pixel := 0; pixel < 16; pixel++ {
		ha, hb := a.PixelHash(pixel), b.PixelHash(pixel)
		assert.Equal(t, ha, hb, "pixel hash must only depend on seed and pixel")
		for dim := 0; dim < PRNGBaseNum+PRNGBounceNum; dim++ {
			assert.Equal(t, a.Draw1D(ha, 3, dim), b.Draw1D(hb, 3, dim))
		}
	}
}

func TestHashRNG_Range(t *testing.T) {
	rng := NewHashRNG(42)
	for pixel := 0; pixel < 64; pixel++ {
		hash := rng.PixelHash(pixel)
		for sample := 0; sample < 8; sample++ {
			u, v := rng.Draw2D(hash, sample, PRNGBaseNum+PRNGLightU)
			assert.GreaterOrEqual(t, u, 0.0)
			assert.Less(t, u, 1.0)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestHashRNG_StreamsDiffer(t *testing.T) {
	rng := NewHashRNG(1)
	hash := rng.PixelHash(10)

	assert.NotEqual(t, rng.Draw1D(hash, 0, PRNGLight), rng.Draw1D(hash, 0, PRNGLightU),
		"different dimensions should decorrelate")
	assert.NotEqual(t, rng.Draw1D(hash, 0, PRNGLight), rng.Draw1D(hash, 1, PRNGLight),
		"different sample indices should decorrelate")
	assert.NotEqual(t, rng.PixelHash(10), NewHashRNG(2).PixelHash(10),
		"different seeds should decorrelate")

	u, v := rng.Draw2D(hash, 0, PRNGLightU)
	assert.Equal(t, rng.Draw1D(hash, 0, PRNGLightU), u)
	assert.Equal(t, rng.Draw1D(hash, 0, PRNGLightV), v)
}
