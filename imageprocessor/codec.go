package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"imageprep/types"
)

var (
	// ErrUnsupportedFormat is returned when the file content is not a known image format
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrNoEncoder is returned when a format can be read but not written
	ErrNoEncoder = errors.New("no encoder for image format")
)

// DecodeFile reads the full image at path. The format is detected from
// the content, not from the extension.
func DecodeFile(path string) (image.Image, FormatType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FormatUnknown, err
	}
	defer f.Close()

	img, name, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return nil, FormatUnknown, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return img, FormatFromName(name), nil
}

// ProbeFile reads only the image header at path
func ProbeFile(path string) (types.ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ImageFile{}, err
	}
	defer f.Close()

	cfg, name, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return types.ImageFile{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return types.ImageFile{}, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	return types.ImageFile{
		Path:   path,
		Format: string(FormatFromName(name)),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// EncodeFile writes img to path in the given format. The data goes to a
// temporary file in the same directory which is renamed over path once
// complete, so path is either the old content or the new one.
func EncodeFile(path string, img image.Image, format FormatType) error {
	encFormat, ok := encoderFormats[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoEncoder, format)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := imaging.Encode(tmp, img, encFormat); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode %s as %s: %w", path, format, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// Keep the permissions of the file being replaced
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// FileExists checks if a regular file exists at path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
