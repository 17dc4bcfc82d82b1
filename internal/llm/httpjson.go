package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// errorClassifier turns a non-2xx response into a provider error. body is
// at most 4 KiB of the response.
type errorClassifier func(status int, body []byte) error

// exchangeJSON sends in as a JSON body (nil sends no body) and decodes a
// 2xx response into out (nil discards it). Transport failures are wrapped in
// ErrProviderDown unless ctx ended, in which case ctx.Err() is returned as is.
func exchangeJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, in, out any, classify errorClassifier) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify(resp.StatusCode, snippet)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusOnly reports any non-2xx status as the provider being down; used
// for reachability probes.
func statusOnly(status int, _ []byte) error {
	return fmt.Errorf("%w: status %d", ErrProviderDown, status)
}
