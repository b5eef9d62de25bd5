package classify

import (
	"context"
	"testing"
)

// steady returns n copies of v, a zero-variance level series.
func steady(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestLocal_Deterministic(t *testing.T) {
	t.Parallel()
	l := NewLocal(WithRandom(func() float64 { return 0.5 }))
	levels := []float64{0.02, 0.3, 0.02, 0.3, 0.02}

	first := l.Classify(context.Background(), "", levels)
	for i := 0; i < 10; i++ {
		if got := l.Classify(context.Background(), "", levels); got != first {
			t.Fatalf("classification changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestLocal_TagBuckets(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		levels []float64
		want   string
	}{
		{"empty is silence", nil, "silence"},
		{"near-zero is silence", steady(20, 0.001), "silence"},
		{"steady quiet hum is nature", steady(20, 0.05), "nature"},
		{"moderate spread is voice", []float64{0.05, 0.2, 0.05, 0.2}, "voice"},
		{"wide spread is urban", []float64{0.05, 0.33, 0.05, 0.33}, "urban"},
		{"extreme spread is music", []float64{0.02, 0.5, 0.02, 0.5}, "music"},
	}

	l := NewLocal(WithRandom(func() float64 { return 0 }))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := l.Classify(context.Background(), "", tc.levels)
			if got.Tag != tc.want {
				t.Errorf("tag = %q, want %q", got.Tag, tc.want)
			}
		})
	}
}

func TestLocal_EmotionBuckets(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		levels []float64
		want   string
	}{
		{"silent is neutral", nil, "neutral"},
		{"quiet is calm", steady(10, 0.05), "calm"},
		{"moderate is happy", steady(10, 0.15), "happy"},
		{"loud is excited", steady(10, 0.4), "excited"},
	}

	l := NewLocal(WithRandom(func() float64 { return 0 }))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := l.Classify(context.Background(), "", tc.levels)
			if got.Emotion != tc.want {
				t.Errorf("emotion = %q, want %q", got.Emotion, tc.want)
			}
		})
	}
}

func TestLocal_ScoreRange(t *testing.T) {
	t.Parallel()
	l := NewLocal()
	for i := 0; i < 50; i++ {
		got := l.Classify(context.Background(), "", steady(5, 0.1))
		if got.Score < 0 || got.Score >= 1 {
			t.Fatalf("score %v outside [0, 1)", got.Score)
		}
	}
}
