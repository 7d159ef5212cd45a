package pipeline

import (
	"fmt"
	"path/filepath"

	"imageprep/imageprocessor"
	"imageprep/types"
)

// CappedSize returns the size of a width x height image after capping
// its larger edge at maxDim. The other edge is scaled by the same factor
// and truncated. resized is false when no edge exceeds maxDim.
func CappedSize(width, height, maxDim int) (newWidth, newHeight int, resized bool) {
	if width <= maxDim && height <= maxDim {
		return width, height, false
	}

	if width >= height {
		newWidth = maxDim
		newHeight = height * maxDim / width
	} else {
		newHeight = maxDim
		newWidth = width * maxDim / height
	}

	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight, true
}

// Capper downscales images whose edges exceed a maximum
type Capper struct {
	maxDim    int
	resampler imageprocessor.Resampler
	tracker   *ProgressTracker
}

// NewCapper creates a capper for the given maximum edge length
func NewCapper(maxDim int, resampler imageprocessor.Resampler, tracker *ProgressTracker) *Capper {
	return &Capper{maxDim: maxDim, resampler: resampler, tracker: tracker}
}

// Cap downscales path in place when needed. It reports whether the file
// was rewritten. On error the file is left unmodified.
func (c *Capper) Cap(path string) (bool, error) {
	name := filepath.Base(path)

	info, err := imageprocessor.ProbeFile(path)
	if err != nil {
		return false, c.fail(path, 0, 0, err)
	}

	newWidth, newHeight, needed := CappedSize(info.Width, info.Height, c.maxDim)
	if !needed {
		c.tracker.Track(types.Event{
			Stage:      types.StageCap,
			Dir:        filepath.Dir(path),
			Path:       path,
			Action:     types.ActionUnchanged,
			FromWidth:  info.Width,
			FromHeight: info.Height,
			ToWidth:    info.Width,
			ToHeight:   info.Height,
		})
		return false, nil
	}

	c.tracker.Printf("Resizing %s from (%d, %d) to (%d, %d)", name, info.Width, info.Height, newWidth, newHeight)

	if err := resizeFile(path, newWidth, newHeight, c.resampler); err != nil {
		return false, c.fail(path, info.Width, info.Height, err)
	}

	c.tracker.Track(types.Event{
		Stage:      types.StageCap,
		Dir:        filepath.Dir(path),
		Path:       path,
		Action:     types.ActionResized,
		FromWidth:  info.Width,
		FromHeight: info.Height,
		ToWidth:    newWidth,
		ToHeight:   newHeight,
	})
	return true, nil
}

func (c *Capper) fail(path string, width, height int, err error) error {
	c.tracker.Printf("Failed to downscale %s: %v", filepath.Base(path), err)
	c.tracker.Track(types.Event{
		Stage:      types.StageCap,
		Dir:        filepath.Dir(path),
		Path:       path,
		Action:     types.ActionFailed,
		FromWidth:  width,
		FromHeight: height,
		Message:    err.Error(),
	})
	return err
}

// resizeFile decodes path, resamples it to width x height and writes it
// back in the format found on disk
func resizeFile(path string, width, height int, resampler imageprocessor.Resampler) error {
	img, format, err := imageprocessor.DecodeFile(path)
	if err != nil {
		return err
	}
	if !imageprocessor.CanEncode(format) {
		return fmt.Errorf("%w: %s", imageprocessor.ErrNoEncoder, format)
	}

	resized, err := resampler.Resize(img, width, height)
	if err != nil {
		return fmt.Errorf("failed to resize %s: %w", path, err)
	}

	return imageprocessor.EncodeFile(path, resized, format)
}
