// Package classify produces the decorative tag/emotion/score triple attached
// to each diary entry at finalize time.
//
// Classification is never load-bearing: the [Classifier] contract absorbs
// every failure into a fallback triple, so callers cannot observe an error.
// Two implementations exist — [Local], a deterministic heuristic over the
// amplitude levels sampled during capture, and [Remote], a single-attempt
// HTTP call to an external analysis endpoint.
package classify

import "context"

// Result is the classification triple.
type Result struct {
	// Tag is the coarse sound category (e.g. "voice", "music", "silence").
	Tag string `json:"tag"`

	// Emotion is the mood label derived from overall loudness.
	Emotion string `json:"emotion"`

	// Score is a confidence-like value in [0, 1].
	Score float64 `json:"score"`
}

// Fallback is the triple used whenever classification is unavailable.
func Fallback() Result {
	return Result{Tag: "unknown", Emotion: "neutral", Score: 0}
}

// Classifier labels a finalized recording. audioData is the stored base64
// payload; levels are the per-frame RMS amplitudes sampled during capture.
//
// Classify never returns an error. Implementations must respect ctx and
// return [Fallback] (or a partial result with fallback defaults) when they
// cannot produce a full triple in time.
type Classifier interface {
	Classify(ctx context.Context, audioData string, levels []float64) Result
}
