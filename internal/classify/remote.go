package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// defaultTimeout bounds the single classification attempt when the caller's
// context carries no earlier deadline.
const defaultTimeout = 5 * time.Second

// Remote classifies recordings via an external analysis endpoint. It issues
// exactly one request per recording — no retries — and absorbs every failure
// (network error, timeout, non-2xx status, malformed body) into [Fallback].
type Remote struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// RemoteOption is a functional option for configuring a [Remote] classifier.
type RemoteOption func(*Remote)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) RemoteOption {
	return func(r *Remote) { r.apiKey = key }
}

// WithTimeout sets the per-attempt timeout. Zero keeps the default.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Tests use this with httptest.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = c }
}

// NewRemote creates a [Remote] classifier targeting endpoint.
func NewRemote(endpoint string, opts ...RemoteOption) (*Remote, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("classify: endpoint must not be empty")
	}
	r := &Remote{
		endpoint:   endpoint,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// classifyRequest is the JSON body sent to the analysis endpoint.
type classifyRequest struct {
	Audio string `json:"audio"` // base64 WAVE payload
}

// classifyResponse mirrors the endpoint's reply. Every field is optional;
// absent fields take the fallback defaults.
type classifyResponse struct {
	Tag     string   `json:"tag"`
	Emotion string   `json:"emotion"`
	Score   *float64 `json:"score"`
}

// Classify implements [Classifier] with a single bounded HTTP attempt.
func (r *Remote) Classify(ctx context.Context, audioData string, _ []float64) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Audio: audioData})
	if err != nil {
		return Fallback()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Debug("classifier: building request failed, using fallback", "err", err)
		return Fallback()
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("classifier: request failed, using fallback", "err", err)
		return Fallback()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("classifier: unexpected status, using fallback", "status", resp.StatusCode)
		return Fallback()
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		slog.Debug("classifier: malformed response, using fallback", "err", err)
		return Fallback()
	}

	out := Fallback()
	if cr.Tag != "" {
		out.Tag = cr.Tag
	}
	if cr.Emotion != "" {
		out.Emotion = cr.Emotion
	}
	if cr.Score != nil {
		out.Score = clamp01(*cr.Score)
	}
	return out
}

// clamp01 pins v into [0, 1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
