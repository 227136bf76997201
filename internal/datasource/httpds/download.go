package httpds

import (
	"context"
	"fmt"
	"io"
	"os"

	"orderetl/internal/datasource"
)

// StatusError reports a final non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Download fetches url in full into a new temporary file under dir (the OS
// temp dir when empty) and returns its path. The caller owns the file and
// must remove it. On any failure no file is left behind.
func (c *Client) Download(ctx context.Context, url, dir string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.CreateTemp(dir, "orderetl-"+SafeFilenameFromURL(url)+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("httpds: create temp file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("httpds: read body from %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("httpds: close temp file: %w", err)
	}
	return path, nil
}

// Remote is a datasource.Source backed by a URL. Each Open downloads the
// table to a temporary file; closing the returned reader removes the file.
type Remote struct {
	client *Client
	name   string
	url    string
	dir    string
}

// NewRemote returns a Remote for the table called name at url. Temporary
// files go to dir, or the OS temp dir when dir is empty.
func NewRemote(client *Client, name, url, dir string) *Remote {
	return &Remote{client: client, name: name, url: url, dir: dir}
}

// URL returns the configured location.
func (r *Remote) URL() string { return r.url }

// Open downloads the table and opens the temporary copy. Fetch failures are
// returned as *datasource.SourceUnavailableError.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	path, err := r.client.Download(ctx, r.url, r.dir)
	if err != nil {
		return nil, &datasource.SourceUnavailableError{Source: r.name, Location: r.url, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, &datasource.SourceUnavailableError{Source: r.name, Location: r.url, Err: err}
	}
	return &tempFile{File: f, path: path}, nil
}

// tempFile removes itself on Close.
type tempFile struct {
	*os.File
	path string
}

func (t *tempFile) Close() error {
	cerr := t.File.Close()
	rerr := os.Remove(t.path)
	if cerr != nil {
		return cerr
	}
	if rerr != nil && !os.IsNotExist(rerr) {
		return rerr
	}
	return nil
}

var _ datasource.Source = (*Remote)(nil)
