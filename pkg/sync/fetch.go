package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RawFetcher fetches one file's raw text at a given ref. No GitHub client
// library in the example corpus is actually exercised anywhere (go-github
// appears only as an unused indirect dependency), so this talks to
// raw.githubusercontent.com directly over net/http, the same deliberately
// stdlib-only choice already made for pkg/alert's Discord endpoint and
// pkg/cloud's Hetzner provisioner.
type RawFetcher struct {
	HTTP *http.Client
	// baseOverride replaces raw.githubusercontent.com in tests.
	baseOverride string
}

func NewRawFetcher() *RawFetcher {
	return &RawFetcher{HTTP: http.DefaultClient}
}

// Fetch retrieves path at branch from a "https://github.com/owner/repo"
// (with or without a trailing ".git") repo URL.
func (f *RawFetcher) Fetch(ctx context.Context, repoURL, branch, path string) (string, error) {
	ownerRepo := strings.TrimSuffix(strings.TrimPrefix(repoURL, "https://github.com/"), ".git")
	base := f.baseOverride
	if base == "" {
		base = "https://raw.githubusercontent.com"
	}
	url := fmt.Sprintf("%s/%s/%s/%s", base, ownerRepo, branch, strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sync: fetching %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
