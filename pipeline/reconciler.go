package pipeline

import (
	"path/filepath"

	"imageprep/config"
	"imageprep/imageprocessor"
	"imageprep/logging"
	"imageprep/types"
)

// Counterpart is the result of looking up a base image's reference file
type Counterpart struct {
	// BasePath is the effective base file, possibly the canonical sibling
	BasePath string
	// RefPath is the last reference path tried, or the one found
	RefPath string
	Found   bool
}

// LocateCounterpart finds the reference file for basePath.
//
// A legacy base whose canonical sibling exists is replaced by that
// sibling and looked up by its canonical name. Otherwise the same file
// name is used in the reference directory. If that file is missing, the
// canonical variant of it is tried.
func LocateCounterpart(basePath string, cfg config.Config) Counterpart {
	baseName := filepath.Base(basePath)
	refPath := filepath.Join(cfg.RefDir, baseName)

	if cfg.IsLegacy(filepath.Ext(baseName)) {
		canonicalBase := imageprocessor.CanonicalPath(basePath, cfg.CanonicalExtension)
		if imageprocessor.FileExists(canonicalBase) {
			basePath = canonicalBase
			refPath = filepath.Join(cfg.RefDir, filepath.Base(canonicalBase))
		}
	}

	if !imageprocessor.FileExists(refPath) {
		variant := imageprocessor.CanonicalPath(refPath, cfg.CanonicalExtension)
		if imageprocessor.FileExists(variant) {
			refPath = variant
		}
	}

	return Counterpart{
		BasePath: basePath,
		RefPath:  refPath,
		Found:    imageprocessor.FileExists(refPath),
	}
}

// Reconciler equalizes the resolution of base/reference pairs
type Reconciler struct {
	cfg       config.Config
	resampler imageprocessor.Resampler
	tracker   *ProgressTracker
}

// NewReconciler creates a reconciler for the directories in cfg
func NewReconciler(cfg config.Config, resampler imageprocessor.Resampler, tracker *ProgressTracker) *Reconciler {
	return &Reconciler{cfg: cfg, resampler: resampler, tracker: tracker}
}

// Reconcile compares basePath with its reference counterpart by total
// pixel count and resizes the larger of the two to the exact size of
// the smaller. It returns the pair as it stands afterwards.
func (r *Reconciler) Reconcile(basePath string) (types.Pair, error) {
	cp := LocateCounterpart(basePath, r.cfg)
	baseName := filepath.Base(cp.BasePath)

	if !cp.Found {
		r.tracker.Printf("[WARNING] Could not find reference image for %s: %s", baseName, cp.RefPath)
		r.tracker.Track(types.Event{
			Stage:   types.StageReconcile,
			Dir:     r.cfg.BaseDir,
			Path:    cp.BasePath,
			Action:  types.ActionMissingCounterpart,
			Message: cp.RefPath,
		})
		return types.Pair{}, nil
	}

	base, err := imageprocessor.ProbeFile(cp.BasePath)
	if err != nil {
		return types.Pair{}, r.fail(cp.BasePath, err)
	}
	ref, err := imageprocessor.ProbeFile(cp.RefPath)
	if err != nil {
		return types.Pair{}, r.fail(cp.BasePath, err)
	}
	pair := types.Pair{Base: base, Reference: ref}

	if base.Pixels() == ref.Pixels() {
		if !pair.Matched() {
			logging.LogInfo("%s (%d, %d) and reference (%d, %d) have equal pixel counts but different shapes",
				baseName, base.Width, base.Height, ref.Width, ref.Height)
		}
		r.tracker.Track(types.Event{
			Stage:      types.StageReconcile,
			Dir:        r.cfg.BaseDir,
			Path:       cp.BasePath,
			Action:     types.ActionUnchanged,
			FromWidth:  base.Width,
			FromHeight: base.Height,
			ToWidth:    base.Width,
			ToHeight:   base.Height,
			Message:    cp.RefPath,
		})
		return pair, nil
	}

	// Exactly one side changes: the one with more pixels
	target, other, label := &pair.Base, pair.Reference, "base"
	if ref.Pixels() > base.Pixels() {
		target, other, label = &pair.Reference, pair.Base, "ref"
	}
	otherLabel := "ref"
	if label == "ref" {
		otherLabel = "base"
	}

	r.tracker.Printf("Resizing (%s) %s from (%d, %d) to (%d, %d) | %s: (%d, %d)",
		label, filepath.Base(target.Path), target.Width, target.Height, other.Width, other.Height,
		otherLabel, other.Width, other.Height)

	if err := resizeFile(target.Path, other.Width, other.Height, r.resampler); err != nil {
		return types.Pair{}, r.fail(cp.BasePath, err)
	}

	r.tracker.Track(types.Event{
		Stage:      types.StageReconcile,
		Dir:        filepath.Dir(target.Path),
		Path:       target.Path,
		Action:     types.ActionResized,
		FromWidth:  target.Width,
		FromHeight: target.Height,
		ToWidth:    other.Width,
		ToHeight:   other.Height,
		Message:    "matched to " + other.Path,
	})

	target.Width, target.Height = other.Width, other.Height
	return pair, nil
}

func (r *Reconciler) fail(basePath string, err error) error {
	r.tracker.Printf("Failed to fix unmatched pair for %s: %v", filepath.Base(basePath), err)
	r.tracker.Track(types.Event{
		Stage:   types.StageReconcile,
		Dir:     r.cfg.BaseDir,
		Path:    basePath,
		Action:  types.ActionFailed,
		Message: err.Error(),
	})
	return err
}
