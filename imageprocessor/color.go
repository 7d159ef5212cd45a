package imageprocessor

import (
	"image"

	"golang.org/x/image/draw"
)

// NormalizeColorMode prepares a decoded image for PNG encoding.
//
// Palette images become full RGBA. Images that already carry RGB or
// RGBA samples are returned as is, except that alpha-carrying YCbCr
// (webp with transparency) is expanded to RGBA. Every other model
// (gray, CMYK, plain YCbCr) becomes opaque RGB.
func NormalizeColorMode(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Paletted:
		return toNRGBA(src, false)
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return img
	case *image.NYCbCrA:
		return toNRGBA(src, false)
	default:
		return toNRGBA(img, true)
	}
}

func toNRGBA(src image.Image, opaque bool) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	if opaque {
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}
