package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"imageprep/config"
	"imageprep/imageprocessor"
	"imageprep/logging"
)

// Options carries the collaborators of a run
type Options struct {
	// Out receives console progress lines. Defaults to io.Discard.
	Out io.Writer
	// Resampler defaults to the Lanczos resampler
	Resampler imageprocessor.Resampler
	// Recorder is optional
	Recorder Recorder
	RunID    int64
}

// Run executes the three passes in their fixed order:
//
//  1. base directory: normalize formats, cap dimensions
//  2. reference directory: normalize formats, cap dimensions
//  3. base directory: reconcile pairs with the reference directory
//
// Pass 3 relies on pass 2 having converted the reference files.
// Per-file failures are reported in the summary and do not make Run fail.
func Run(ctx context.Context, cfg config.Config, opts Options) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	if opts.Resampler == nil {
		opts.Resampler = imageprocessor.NewLanczosResampler()
	}
	tracker := NewProgressTracker(opts.Out, opts.Recorder, opts.RunID)

	if cfg.OutputDir != "" {
		mirrored, err := MirrorTree(cfg)
		if err != nil {
			return nil, err
		}
		tracker.Printf("Writing results to %s (sources left untouched)", cfg.OutputDir)
		cfg = mirrored
	}

	for _, dir := range []string{cfg.BaseDir, cfg.RefDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("cannot access directory %s: %v", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", dir)
		}
	}

	normalizer := NewNormalizer(cfg.CanonicalExtension, tracker)
	capper := NewCapper(cfg.MaxDimension, opts.Resampler, tracker)
	reconciler := NewReconciler(cfg, opts.Resampler, tracker)
	walker := NewWalker(cfg, normalizer, capper, reconciler)

	logging.LogInfo("Starting run: base=%s ref=%s max=%d", cfg.BaseDir, cfg.RefDir, cfg.MaxDimension)
	tracker.Printf("Starting image processing...")

	legacy := make([]string, len(cfg.LegacyExtensions))
	for i, ext := range cfg.LegacyExtensions {
		legacy[i] = formatLabel(ext)
	}
	conversion := fmt.Sprintf("Converting %s to %s", strings.Join(legacy, "/"), formatLabel(cfg.CanonicalExtension))

	passes := []struct {
		header string
		dir    string
		mode   Mode
	}{
		{"--- " + conversion + " and Downscaling (if necessary) in base directory ---", cfg.BaseDir, ModeNormalizeAndCap},
		{"--- " + conversion + " and Downscaling (if necessary) in ref directory ---", cfg.RefDir, ModeNormalizeAndCap},
		{"--- Fixing unmatched resolution pairs ---", cfg.BaseDir, ModeReconcilePairs},
	}

	for _, pass := range passes {
		tracker.Printf("\n%s", pass.header)
		if err := walker.Walk(ctx, pass.dir, pass.mode); err != nil {
			return tracker.Summary(), err
		}
	}

	tracker.Printf("\nDone. All specified image conversions and adjustments completed.")
	return tracker.Summary(), nil
}

// MirrorDirs returns the working base and ref directories used when
// cfg.OutputDir is set
func MirrorDirs(cfg config.Config) (baseDir, refDir string) {
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		out = filepath.Clean(cfg.OutputDir)
	}
	return filepath.Join(out, "base"), filepath.Join(out, "ref")
}

// MirrorTree copies the immediate files of the base and ref directories
// into <OutputDir>/base and <OutputDir>/ref and returns a configuration
// pointing at the copies. Existing files of the same name are replaced.
// Symlinked files are copied by content. An output layout that resolves
// to either source directory is rejected before anything is written.
func MirrorTree(cfg config.Config) (config.Config, error) {
	mirrored := cfg
	mirrored.BaseDir, mirrored.RefDir = MirrorDirs(cfg)
	mirrored.OutputDir = ""

	for _, src := range []string{cfg.BaseDir, cfg.RefDir} {
		for _, dst := range []string{cfg.OutputDir, mirrored.BaseDir, mirrored.RefDir} {
			if sameDir(src, dst) {
				return cfg, fmt.Errorf("output directory %s would overwrite source directory %s", cfg.OutputDir, src)
			}
		}
	}

	for src, dst := range map[string]string{cfg.BaseDir: mirrored.BaseDir, cfg.RefDir: mirrored.RefDir} {
		if err := copyFiles(src, dst); err != nil {
			return cfg, err
		}
	}
	return mirrored, nil
}

// sameDir reports whether a and b name the same directory, either by
// absolute path or, when both exist, by identity on disk
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

func copyFiles(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("cannot list directory %s: %v", src, err)
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %v", dst, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// Follow links the same way the walker does
		path := filepath.Join(src, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := copyFile(path, filepath.Join(dst, entry.Name()), info); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, srcInfo os.FileInfo) error {
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("cannot copy %s onto itself", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("cannot copy %s: %v", src, err)
	}
	return out.Close()
}
