package imageprocessor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// LanczosResampler scales images with the Lanczos filter from the imaging package
type LanczosResampler struct{}

// NewLanczosResampler creates the default resampler
func NewLanczosResampler() *LanczosResampler {
	return &LanczosResampler{}
}

// Resize scales img to exactly width x height
func (r *LanczosResampler) Resize(img image.Image, width, height int) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
