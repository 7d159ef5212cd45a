package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imageprep/config"
	"imageprep/logging"
)

// Mode selects what the walker does with each supported file
type Mode int

const (
	// ModeNormalizeAndCap converts legacy formats and caps dimensions
	ModeNormalizeAndCap Mode = iota
	// ModeReconcilePairs converts legacy formats and reconciles each
	// file with its reference counterpart. Only valid for the base directory.
	ModeReconcilePairs
)

func (m Mode) String() string {
	switch m {
	case ModeNormalizeAndCap:
		return "normalize-and-cap"
	case ModeReconcilePairs:
		return "reconcile-pairs"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Walker drives the stages over the immediate files of a directory
type Walker struct {
	cfg        config.Config
	normalizer *Normalizer
	capper     *Capper
	reconciler *Reconciler
}

// NewWalker creates a walker using the given stage implementations
func NewWalker(cfg config.Config, normalizer *Normalizer, capper *Capper, reconciler *Reconciler) *Walker {
	return &Walker{
		cfg:        cfg,
		normalizer: normalizer,
		capper:     capper,
		reconciler: reconciler,
	}
}

// Walk processes every regular file directly inside dir. Subdirectories
// are skipped. Per-file failures are reported and never stop the walk;
// only a listing error, an invalid mode/directory combination or a
// cancelled context is returned.
func (w *Walker) Walk(ctx context.Context, dir string, mode Mode) error {
	switch mode {
	case ModeNormalizeAndCap:
	case ModeReconcilePairs:
		if filepath.Clean(dir) != filepath.Clean(w.cfg.BaseDir) {
			return fmt.Errorf("%s is only valid for the base directory %s, got %s", mode, w.cfg.BaseDir, dir)
		}
	default:
		return fmt.Errorf("unknown walk mode %d", int(mode))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot list directory %s: %v", dir, err)
	}

	logging.LogDebug("Walking %s in %s mode (%d entries)", dir, mode, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			// Follow links so linked files are processed and linked directories skipped
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
		}

		w.processFile(path, mode)
	}

	return nil
}

func (w *Walker) processFile(path string, mode Mode) {
	ext := strings.ToLower(filepath.Ext(path))

	if w.cfg.IsLegacy(ext) {
		newPath, err := w.normalizer.Normalize(path)
		if err != nil {
			return
		}
		path = newPath
		ext = strings.ToLower(filepath.Ext(newPath))
	}

	if !w.cfg.IsSupported(ext) {
		logging.LogDebug("Skipping unsupported file: %s", path)
		return
	}

	switch mode {
	case ModeNormalizeAndCap:
		w.capper.Cap(path)
	case ModeReconcilePairs:
		w.reconciler.Reconcile(path)
	}
}
