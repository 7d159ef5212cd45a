package imageprocessor

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestGetFileFormat(t *testing.T) {
	tests := []struct {
		path string
		want FormatType
	}{
		{"a.png", FormatPNG},
		{"dir/b.JPG", FormatJPEG},
		{"c.jpeg", FormatJPEG},
		{"d.Gif", FormatGIF},
		{"e.bmp", FormatBMP},
		{"f.WEBP", FormatWEBP},
		{"g.tiff", FormatUnknown},
		{"noext", FormatUnknown},
	}

	for _, tt := range tests {
		if got := GetFileFormat(tt.path); got != tt.want {
			t.Errorf("GetFileFormat(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if !IsKnownExtension(".JPEG") || IsKnownExtension(".tif") {
		t.Error("IsKnownExtension mismatch")
	}
	if FormatFromName("jpeg") != FormatJPEG || FormatFromName("tiff") != FormatUnknown {
		t.Error("FormatFromName mismatch")
	}
	if CanEncode(FormatWEBP) {
		t.Error("webp should not be encodable")
	}
	for _, f := range []FormatType{FormatJPEG, FormatPNG, FormatGIF, FormatBMP} {
		if !CanEncode(f) {
			t.Errorf("expected %s to be encodable", f)
		}
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"/base/img.gif":      "/base/img.png",
		"/base/img.v2.WEBP":  "/base/img.v2.png",
		"/base/noext":        "/base/noext.png",
		"relative/photo.bmp": "relative/photo.png",
	}
	for in, want := range tests {
		if got := CanonicalPath(in, ".png"); got != want {
			t.Errorf("CanonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeColorMode(t *testing.T) {
	palette := color.Palette{color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 0, 255, 0}}
	paletted := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	paletted.SetColorIndex(1, 0, 1)

	out, ok := NormalizeColorMode(paletted).(*image.NRGBA)
	if !ok {
		t.Fatalf("paletted image should become NRGBA")
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("unexpected first pixel %v", got)
	}
	if got := out.NRGBAAt(1, 0); got.A != 0 {
		t.Errorf("transparent palette entry should keep alpha 0, got %v", got)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if NormalizeColorMode(rgba) != image.Image(rgba) {
		t.Error("RGBA image should be returned unchanged")
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(0, 0, color.Gray{Y: 128})
	grayOut, ok := NormalizeColorMode(gray).(*image.NRGBA)
	if !ok {
		t.Fatalf("gray image should become NRGBA")
	}
	if got := grayOut.NRGBAAt(0, 0); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("unexpected gray conversion %v", got)
	}
	if !grayOut.Opaque() {
		t.Error("converted gray image should be opaque")
	}

	ycc := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	if _, ok := NormalizeColorMode(ycc).(*image.NRGBA); !ok {
		t.Error("YCbCr image should become NRGBA")
	}
}

func TestNormalizeColorModeOffsetBounds(t *testing.T) {
	src := image.NewGray(image.Rect(10, 10, 13, 12))
	out := NormalizeColorMode(src)
	if out.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("expected zero-origin bounds, got %v", out.Bounds())
	}
}

func TestProbeAndDecodeDetectContent(t *testing.T) {
	dir := t.TempDir()

	// A GIF stored under a .png name is still reported as GIF
	path := filepath.Join(dir, "mislabelled.png")
	writeGIF(t, path, 7, 3)

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile failed: %v", err)
	}
	if info.Format != string(FormatGIF) || info.Width != 7 || info.Height != 3 {
		t.Errorf("unexpected probe result %+v", info)
	}

	img, format, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if format != FormatGIF || img.Bounds().Dx() != 7 {
		t.Errorf("unexpected decode result %s %v", format, img.Bounds())
	}
}

func TestDecodeBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 5, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, format, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if format != FormatBMP {
		t.Errorf("expected bmp, got %s", format)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.png")
	os.WriteFile(garbage, []byte("definitely not an image"), 0644)

	if _, _, err := DecodeFile(garbage); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ProbeFile(garbage); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat from probe, got %v", err)
	}

	if _, _, err := DecodeFile(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEncodeFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	writePNG(t, path, 10, 10)
	os.Chmod(path, 0600)

	if err := EncodeFile(path, image.NewNRGBA(image.Rect(0, 0, 4, 2)), FormatPNG); err != nil {
		t.Fatalf("EncodeFile failed: %v", err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 4 || info.Height != 2 {
		t.Errorf("file not replaced, got %dx%d", info.Width, info.Height)
	}

	stat, _ := os.Stat(path)
	if stat.Mode().Perm() != 0600 {
		t.Errorf("permissions not preserved: %v", stat.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestEncodeFileWithoutEncoder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.webp")
	os.WriteFile(path, []byte("original"), 0644)

	err := EncodeFile(path, image.NewNRGBA(image.Rect(0, 0, 1, 1)), FormatWEBP)
	if !errors.Is(err, ErrNoEncoder) {
		t.Fatalf("expected ErrNoEncoder, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Error("original file modified on encoder failure")
	}
}

func TestLanczosResampler(t *testing.T) {
	r := NewLanczosResampler()

	out, err := r.Resize(image.NewNRGBA(image.Rect(0, 0, 300, 100)), 30, 25)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if out.Bounds().Dx() != 30 || out.Bounds().Dy() != 25 {
		t.Errorf("unexpected size %v", out.Bounds())
	}

	if _, err := r.Resize(image.NewNRGBA(image.Rect(0, 0, 3, 3)), 0, 3); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, 1, 1)

	if !FileExists(path) {
		t.Error("expected file to exist")
	}
	if FileExists(dir) {
		t.Error("directory should not count as a file")
	}
	if FileExists(filepath.Join(dir, "b.png")) {
		t.Error("missing file reported as existing")
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func writeGIF(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Black, color.White})
	if err := gif.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}
