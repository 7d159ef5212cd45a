package imageprocessor

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
}

// Formats the encoder can write. webp is decode-only.
var encoderFormats = map[FormatType]imaging.Format{
	FormatJPEG: imaging.JPEG,
	FormatPNG:  imaging.PNG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
}

// IsKnownExtension reports whether ext (with leading dot, any case) maps to a known format
func IsKnownExtension(ext string) bool {
	_, ok := formatExtensions[strings.ToLower(ext)]
	return ok
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// FormatFromName maps a decoder name as reported by image.Decode to a format type
func FormatFromName(name string) FormatType {
	switch strings.ToLower(name) {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "bmp":
		return FormatBMP
	case "webp":
		return FormatWEBP
	default:
		return FormatUnknown
	}
}

// CanEncode reports whether images can be written in the given format
func CanEncode(format FormatType) bool {
	_, ok := encoderFormats[format]
	return ok
}

// CanonicalPath replaces the extension of path with ext, keeping the stem
func CanonicalPath(path string, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
