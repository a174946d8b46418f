package tle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultURLPrefix serves one TLE file per group as {prefix}{group}.txt.
	DefaultURLPrefix = "https://celestrak.org/NORAD/elements/"

	// DefaultAmsatURL serves the composite amateur radio file.
	DefaultAmsatURL = "https://www.amsat.org/amsat/ftp/keps/current/nasabare.txt"

	maxBodyBytes = 50 << 20
)

// Fetcher retrieves raw TLE files from remote catalogs.
type Fetcher struct {
	urlPrefix  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher building group URLs from urlPrefix.
// Each request is bounded by timeout.
func NewFetcher(urlPrefix string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		urlPrefix: urlPrefix,
		timeout:   timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "fetcher"),
	}
}

// GroupURL returns the remote URL for a group key.
func (f *Fetcher) GroupURL(group string) string {
	return f.urlPrefix + group + ".txt"
}

// Download fetches url and stores the body verbatim as the input file for
// group. Every failure is returned as a *FetchError.
func (f *Fetcher) Download(ctx context.Context, group, url string, inputs *Inputs) (string, error) {
	f.logger.Info("fetching", "group", group, "url", url, "path", inputs.Path(group))

	data, err := f.Fetch(ctx, url)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Group = group
			return "", fe
		}
		return "", &FetchError{Group: group, URL: url, Err: err}
	}

	path, err := inputs.Write(group, data)
	if err != nil {
		return "", &FetchError{Group: group, URL: url, Err: err}
	}

	f.logger.Debug("stored input", "group", group, "bytes", len(data), "path", path)
	return path, nil
}

// Fetch performs an HTTP GET and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)}
	}

	return body, nil
}
