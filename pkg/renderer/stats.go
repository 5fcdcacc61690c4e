package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	RenderID       string  // Identifier shared with the wave records of this render
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel
	Waves          int     // Waves executed
	Iterations     int     // Bounce iterations over all waves
	Dispatches     int     // Kernel dispatches over all waves
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Film accumulates path radiance per pixel. Pixels are indexed row-major from
// the top left. A wave writes each pixel from at most one slot, so AddSample
// needs no locking as long as waves do not overlap.
type Film struct {
	width, height int
	pixels        []PixelStats
}

// NewFilm creates an empty film
func NewFilm(width, height int) *Film {
	return &Film{
		width:  width,
		height: height,
		pixels: make([]PixelStats, width*height),
	}
}

// AddSample adds one path's radiance to a pixel
func (f *Film) AddSample(pixel int, color core.Vec3) {
	f.pixels[pixel].AddSample(color)
}

// Pixel returns the statistics of the pixel at (x, y)
func (f *Film) Pixel(x, y int) PixelStats {
	return f.pixels[y*f.width+x]
}

// Image converts the film to an 8-bit image and gathers sample statistics
func (f *Film) Image(maxSamples int) (*image.RGBA, RenderStats) {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))

	stats := RenderStats{
		TotalPixels: f.width * f.height,
		MaxSamples:  maxSamples,
		MinSamples:  maxSamples, // Start high, will be reduced
	}

	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			pixel := &f.pixels[y*f.width+x]
			img.SetRGBA(x, y, vec3ToColor(pixel.GetColor()))

			stats.TotalSamples += pixel.SampleCount
			stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return img, stats
}

// vec3ToColor converts linear radiance to a gamma corrected 8-bit color
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	// Apply gamma correction (gamma = 2.0)
	colorVec = colorVec.GammaCorrect(2.0)

	// Clamp to valid color range
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img with
// channels scaled to [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
		}
	}
	return total / float64(count)
}
