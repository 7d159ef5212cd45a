package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"imageprep/config"
	"imageprep/imageprocessor"
	"imageprep/types"
)

type memoryRecorder struct {
	events []types.Event
}

func (m *memoryRecorder) Record(event types.Event) error {
	m.events = append(m.events, event)
	return nil
}

// testEnv holds a base/ref directory pair under a temp dir
type testEnv struct {
	root string
	cfg  config.Config
	out  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	for _, dir := range []string{cfg.BaseDir, cfg.RefDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return &testEnv{root: root, cfg: cfg, out: &bytes.Buffer{}}
}

func (e *testEnv) base(name string) string { return filepath.Join(e.cfg.BaseDir, name) }

func (e *testEnv) ref(name string) string { return filepath.Join(e.cfg.RefDir, name) }

func (e *testEnv) tracker() *ProgressTracker {
	return NewProgressTracker(e.out, nil, 0)
}

// writeImage writes a gradient image of the given size and format
func writeImage(t *testing.T, path string, w, h int, format imageprocessor.FormatType) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	if format == imageprocessor.FormatGIF {
		pal := image.NewPaletted(img.Bounds(), color.Palette{color.Black, color.White, color.NRGBA{0, 0, 0, 0}})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pal.SetColorIndex(x, y, uint8((x+y)%3))
			}
		}
		if err := imageprocessor.EncodeFile(path, pal, format); err != nil {
			t.Fatal(err)
		}
		return
	}
	if err := imageprocessor.EncodeFile(path, img, format); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func probe(t *testing.T, path string) types.ImageFile {
	t.Helper()
	info, err := imageprocessor.ProbeFile(path)
	if err != nil {
		t.Fatalf("probe %s: %v", path, err)
	}
	return info
}

func assertSize(t *testing.T, path string, w, h int) {
	t.Helper()
	info := probe(t, path)
	if info.Width != w || info.Height != h {
		t.Errorf("%s: expected %dx%d, got %dx%d", filepath.Base(path), w, h, info.Width, info.Height)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent", path)
	}
}

func snapshot(t *testing.T, dirs ...string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			files[path] = data
		}
	}
	return files
}
