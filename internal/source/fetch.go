package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

const (
	DefaultBaseURL = "https://arxiv.org"
	userAgent      = "tex2epub/0.1 (academic paper converter)"
)

// Fetcher downloads source bundles from arXiv.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		BaseURL: DefaultBaseURL,
		Client:  http.DefaultClient,
		Logger:  logger,
	}
}

// Download fetches the source bundle of the paper id into dir and returns
// the path of the downloaded file.
func (f *Fetcher) Download(ctx context.Context, id, dir string) (string, error) {
	src := f.BaseURL + "/src/" + id
	destPath := filepath.Join(dir, "arXiv-"+id+".tar.gz")

	if f.Logger != nil {
		f.Logger.Info("downloading source", "url", src)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download source: status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".src-*")
	if err != nil {
		return "", fmt.Errorf("create temp source file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write source file: %w", err)
	}
	_ = tmp.Close()

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename source file: %w", err)
	}

	if f.Logger != nil {
		f.Logger.Info("downloaded source", "file", filepath.Base(destPath), "bytes", n)
	}
	return destPath, nil
}
