// Package imageload resolves an image source into raw bytes. A source is
// either an embedded data URI or a URL to fetch.
package imageload

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DataPrefix marks an embedded source.
const DataPrefix = "data:"

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error is returned for any decoding or fetch failure.
type Error struct {
	Source string // truncated for data URIs
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Loader loads image bytes. The zero value fetches with
// http.DefaultClient and does not cap the body size.
type Loader struct {
	Client Doer
	// MaxBytes caps the image size for fetched and embedded sources;
	// 0 means unlimited.
	MaxBytes int64
}

// New returns a Loader using client.
func New(client Doer, maxBytes int64) *Loader {
	return &Loader{Client: client, MaxBytes: maxBytes}
}

// Load returns the bytes named by source. There is no retry; the only
// blocking step is the fetch for non-embedded sources. Deadlines come
// from ctx or the client.
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, DataPrefix) {
		b, err := l.decodeData(source)
		if err != nil {
			return nil, &Error{Source: short(source), Err: err}
		}
		return b, nil
	}
	b, err := l.fetch(ctx, source)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	return b, nil
}

// decodeData base64-decodes the payload after the first comma. Padding
// is optional.
func (l *Loader) decodeData(source string) ([]byte, error) {
	_, payload, ok := strings.Cut(source, ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload separator")
	}
	if l.MaxBytes > 0 && int64(base64.RawStdEncoding.DecodedLen(len(payload))) > l.MaxBytes+2 {
		return nil, fmt.Errorf("image exceeds %d bytes", l.MaxBytes)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		if b, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
	}
	if l.MaxBytes > 0 && int64(len(b)) > l.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.MaxBytes)
	}
	return b, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if l.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, l.MaxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if l.MaxBytes > 0 && int64(len(b)) > l.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.MaxBytes)
	}
	return b, nil
}

func short(source string) string {
	const max = 32
	if len(source) <= max {
		return source
	}
	return source[:max] + "..."
}
