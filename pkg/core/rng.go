package core

// Sample dimensions used before the first bounce.
const (
	PRNGFilterU = 0
	PRNGFilterV = 1
	PRNGLensU   = 2
	PRNGLensV   = 3
	PRNGTime    = 4
	PRNGBaseNum = 8
)

// Sample dimensions relative to the start of a bounce. A path at bounce b
// draws from PRNGBaseNum + b*PRNGBounceNum + dimension.
const (
	PRNGBsdfU          = 0
	PRNGBsdfV          = 1
	PRNGBsdf           = 2
	PRNGLight          = 3
	PRNGLightU         = 4
	PRNGLightV         = 5
	PRNGLightTerminate = 6
	PRNGTerminate      = 7
	PRNGBounceNum      = 8
)

// HashRNG is a stateless random stream: every draw is a pure function of
// (seed, pixel, sample index, dimension), so a wave can be replayed exactly
// no matter which thread or group handles a slot.
type HashRNG struct {
	Seed uint32
}

// NewHashRNG creates a hash based random stream for the given seed
func NewHashRNG(seed uint32) HashRNG {
	return HashRNG{Seed: seed}
}

// PixelHash derives the per-pixel stream hash stored in a slot's RNG entry
func (r HashRNG) PixelHash(pixel int) uint32 {
	return uint32(mix64(uint64(uint32(pixel))<<32 | uint64(r.Seed)))
}

// Draw1D returns a value in [0, 1)
func (r HashRNG) Draw1D(hash uint32, sample, dimension int) float64 {
	key := uint64(hash)<<32 | uint64(uint32(sample))
	h := mix64(key ^ mix64(uint64(dimension)+0x9e3779b97f4a7c15))
	return float64(h>>11) * (1.0 / (1 << 53))
}

// Draw2D returns a pair in [0, 1)² drawn from dimension and dimension+1
func (r HashRNG) Draw2D(hash uint32, sample, dimension int) (float64, float64) {
	return r.Draw1D(hash, sample, dimension), r.Draw1D(hash, sample, dimension+1)
}

// mix64 is the splitmix64 finalizer
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
