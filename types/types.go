package types

import "time"

// ImageFile describes an image on disk. Pixel data is never kept here.
type ImageFile struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Pixels returns the total pixel count of the image
func (f ImageFile) Pixels() int {
	return f.Width * f.Height
}

// Pair holds a base image and its reference counterpart
type Pair struct {
	Base      ImageFile `json:"base"`
	Reference ImageFile `json:"reference"`
}

// Matched reports whether both members have identical dimensions
func (p Pair) Matched() bool {
	return p.Base.Width == p.Reference.Width && p.Base.Height == p.Reference.Height
}

// Stage identifies the pipeline stage that produced an event
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageCap       Stage = "cap"
	StageReconcile Stage = "reconcile"
)

// Action is the outcome of a stage for a single file
type Action string

const (
	ActionConverted          Action = "converted"
	ActionResized            Action = "resized"
	ActionUnchanged          Action = "unchanged"
	ActionMissingCounterpart Action = "missing_counterpart"
	ActionFailed             Action = "failed"
)

// Event records what happened to one file in one stage
type Event struct {
	RunID      int64     `json:"run_id"`
	Stage      Stage     `json:"stage"`
	Dir        string    `json:"dir"`
	Path       string    `json:"path"`
	Action     Action    `json:"action"`
	FromWidth  int       `json:"from_width"`
	FromHeight int       `json:"from_height"`
	ToWidth    int       `json:"to_width"`
	ToHeight   int       `json:"to_height"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}
