// Package imageprocessor decodes, normalizes, resamples and encodes the
// raster formats handled by imageprep.
package imageprocessor

import "image"

// Resampler scales an image to an exact size
type Resampler interface {
	// Resize returns img scaled to width x height
	Resize(img image.Image, width, height int) (image.Image, error)
}
