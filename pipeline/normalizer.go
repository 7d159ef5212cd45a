package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imageprep/imageprocessor"
	"imageprep/types"
)

// Normalizer converts legacy formats to the canonical format
type Normalizer struct {
	canonicalExt string
	tracker      *ProgressTracker
}

// NewNormalizer creates a normalizer writing files with canonicalExt
func NewNormalizer(canonicalExt string, tracker *ProgressTracker) *Normalizer {
	return &Normalizer{canonicalExt: canonicalExt, tracker: tracker}
}

// Normalize rewrites path as <stem><canonicalExt> and removes the original.
// The original is only removed once the new file is on disk; on error it
// is left in place.
func (n *Normalizer) Normalize(path string) (string, error) {
	name := filepath.Base(path)
	newPath := imageprocessor.CanonicalPath(path, n.canonicalExt)

	if err := n.convert(path, newPath); err != nil {
		return "", n.fail(path, err)
	}
	n.tracker.Printf("Converted %s to %s: %s", name, formatLabel(n.canonicalExt), filepath.Base(newPath))

	if !imageprocessor.FileExists(newPath) {
		return "", n.fail(path, fmt.Errorf("converted file %s is missing", newPath))
	}
	if err := os.Remove(path); err != nil {
		return "", n.fail(path, err)
	}
	n.tracker.Printf("Removed original file: %s", name)

	n.tracker.Track(types.Event{
		Stage:   types.StageNormalize,
		Dir:     filepath.Dir(path),
		Path:    path,
		Action:  types.ActionConverted,
		Message: newPath,
	})
	return newPath, nil
}

func (n *Normalizer) convert(path, newPath string) error {
	img, _, err := imageprocessor.DecodeFile(path)
	if err != nil {
		return err
	}

	format := imageprocessor.GetFileFormat(newPath)
	return imageprocessor.EncodeFile(newPath, imageprocessor.NormalizeColorMode(img), format)
}

func (n *Normalizer) fail(path string, err error) error {
	n.tracker.Printf("Failed to convert %s to %s: %v", filepath.Base(path), formatLabel(n.canonicalExt), err)
	n.tracker.Track(types.Event{
		Stage:   types.StageNormalize,
		Dir:     filepath.Dir(path),
		Path:    path,
		Action:  types.ActionFailed,
		Message: err.Error(),
	})
	return err
}

// formatLabel turns ".png" into "PNG"
func formatLabel(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}
