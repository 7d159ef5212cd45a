// Package opencv provides a resampler backed by OpenCV through gocv.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"imageprep/imageprocessor"
)

// Resampler scales images with OpenCV's Lanczos4 interpolation
type Resampler struct{}

var _ imageprocessor.Resampler = (*Resampler)(nil)

// NewResampler creates an OpenCV backed resampler
func NewResampler() *Resampler {
	return &Resampler{}
}

// Resize scales img to exactly width x height
func (r *Resampler) Resize(img image.Image, width, height int) (image.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	src, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %v", err)
	}
	defer src.Close()

	if src.Empty() {
		return nil, fmt.Errorf("cannot resize empty image")
	}

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLanczos4)
	if dst.Empty() {
		return nil, fmt.Errorf("OpenCV resize to %dx%d produced an empty image", width, height)
	}

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %v", err)
	}
	return out, nil
}
