package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an output image encoding
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat accepts png, bmp, tiff and tif in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// WriteImage encodes img to w
func WriteImage(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// OutputPath returns <root>/<sceneName>/render_<timestamp>.<format>
func OutputPath(root, sceneName string, format Format, t time.Time) string {
	filename := fmt.Sprintf("render_%s.%s", t.Format("20060102_150405"), format)
	return filepath.Join(root, sceneName, filename)
}

// SaveImage writes img to path, creating its directory
func SaveImage(path string, img image.Image, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	if err := WriteImage(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("error saving %s: %w", format, err)
	}
	return file.Close()
}
