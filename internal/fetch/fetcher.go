// Package fetch downloads remote audio files into a workspace.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrTooLarge is returned when a body exceeds the configured size cap.
var ErrTooLarge = errors.New("remote file exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET returned %d", e.StatusCode)
	}
	return fmt.Sprintf("GET returned %d: %s", e.StatusCode, e.Body)
}

// Fetcher streams remote files to disk.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// New returns a Fetcher whose requests time out after timeout and whose
// bodies are capped at maxBytes (0 disables the cap).
func New(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// NewWithClient is New with a caller-supplied client.
func NewWithClient(client *http.Client, maxBytes int64) *Fetcher {
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch downloads url to dest. The body is streamed, never buffered whole.
// On failure the partial file is removed.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "audiomerge/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return fmt.Errorf("%w: content length %d > %d", ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file failed: %w", cerr)
		}
		if err != nil {
			os.Remove(dest)
		}
	}()

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	n, err := io.Copy(out, body)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}
	if n == 0 {
		return errors.New("remote file is empty")
	}
	return nil
}
