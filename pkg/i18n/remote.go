package i18n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteLabels calls the labels service, which returns translated section
// headings for a language. The embedded catalog stays authoritative for any
// key the service does not answer.
type RemoteLabels struct {
	BaseURL  string
	HTTP     *http.Client
	Attempts int
	Backoff  time.Duration
}

func NewRemoteLabels(baseURL string) *RemoteLabels {
	return &RemoteLabels{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Backoff:  time.Second,
	}
}

type labelsRequest struct {
	Language string   `json:"language"`
	Keys     []string `json:"keys"`
	Defaults []string `json:"defaults"`
}

type labelsResponse struct {
	Labels map[string]string `json:"labels"`
}

// Fetch asks the service to translate keys into lang. defaults carries the
// English text for each key, in the same order, as translation context.
func (r *RemoteLabels) Fetch(ctx context.Context, lang string, keys, defaults []string) (map[string]string, error) {
	body, err := json.Marshal(labelsRequest{Language: lang, Keys: keys, Defaults: defaults})
	if err != nil {
		return nil, err
	}
	resp, err := r.doPostWithRetry(ctx, "/v1/labels", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("labels service returned %d: %s", resp.StatusCode, string(raw))
	}
	var out labelsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	// only keep keys that were asked for
	labels := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := out.Labels[k]; ok && v != "" {
			labels[k] = v
		}
	}
	return labels, nil
}

// doPostWithRetry performs an HTTP POST with exponential backoff on
// transport errors and 5xx answers.
func (r *RemoteLabels) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.HTTP.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("labels service returned %d", resp.StatusCode)
		}
		lastErr = err
		if i < attempts-1 {
			backoff := r.Backoff * time.Duration(1<<i)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// Sync overlays remote translations for every language in langs. It stops at
// the first failure; languages synced before it keep their overlay.
func (c *Catalog) Sync(ctx context.Context, remote *RemoteLabels, langs []string) error {
	keys := c.Keys()
	en := c.Localizer(DefaultLanguage)
	defaults := make([]string, len(keys))
	for i, k := range keys {
		defaults[i] = en.T(k, nil)
	}
	for _, lang := range langs {
		labels, err := remote.Fetch(ctx, lang, keys, defaults)
		if err != nil {
			return fmt.Errorf("sync %s labels: %w", lang, err)
		}
		c.Merge(lang, labels)
	}
	return nil
}
