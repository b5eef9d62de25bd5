package classify

import (
	"context"
	"math/rand/v2"

	"github.com/heardiary/heardiary/pkg/audio"
)

// Bucketing thresholds over normalised RMS levels. Illustrative defaults, not
// calibrated constants — the mapping just has to be total and deterministic
// for a given level series.
const (
	silenceMean = 0.01

	musicVariance = 0.030
	urbanVariance = 0.015
	voiceVariance = 0.005

	calmMean  = 0.08
	happyMean = 0.20
)

// Local is the deterministic on-device classifier. Tag and emotion depend
// only on the amplitude levels; score is uniform random in [0, 1).
type Local struct {
	random func() float64
}

// Option configures a [Local] classifier.
type Option func(*Local)

// WithRandom replaces the score source. Tests use this to pin the score.
func WithRandom(f func() float64) Option {
	return func(l *Local) { l.random = f }
}

// NewLocal returns a ready [Local] classifier.
func NewLocal(opts ...Option) *Local {
	l := &Local{random: rand.Float64}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Classify implements [Classifier]. It never fails: an empty level series
// classifies as silence.
func (l *Local) Classify(_ context.Context, _ string, levels []float64) Result {
	mean, variance := audio.MeanVariance(levels)
	return Result{
		Tag:     tagFor(mean, variance),
		Emotion: emotionFor(mean),
		Score:   l.random(),
	}
}

// tagFor buckets a recording by loudness and amplitude spread. Low variance at
// speaking loudness reads as steady ambience; high variance as music or street
// noise.
func tagFor(mean, variance float64) string {
	if mean < silenceMean {
		return "silence"
	}
	switch {
	case variance >= musicVariance:
		return "music"
	case variance >= urbanVariance:
		return "urban"
	case variance >= voiceVariance:
		return "voice"
	default:
		return "nature"
	}
}

// emotionFor buckets a recording by overall loudness.
func emotionFor(mean float64) string {
	switch {
	case mean < silenceMean:
		return "neutral"
	case mean < calmMean:
		return "calm"
	case mean < happyMean:
		return "happy"
	default:
		return "excited"
	}
}
