// Package version compares the running build against the latest published
// release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// ReleaseURL is the release feed queried by Check
	ReleaseURL   = "https://api.github.com/repos/studiowebux/lmscli/releases/latest"
	checkTimeout = 5 * time.Second
)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Result is the outcome of an update check
type Result struct {
	Current   string `json:"current" yaml:"current"`
	Latest    string `json:"latest" yaml:"latest"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Available bool   `json:"updateAvailable" yaml:"updateAvailable"`
}

// Check fetches the latest release from url and compares it with current
func Check(ctx context.Context, hc *http.Client, url, current string) (Result, error) {
	if hc == nil {
		hc = &http.Client{Timeout: checkTimeout}
	}
	res := Result{Current: strings.TrimPrefix(current, "v")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lmscli/"+res.Current)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return res, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return res, fmt.Errorf("failed to decode response: %w", err)
	}

	res.Latest = strings.TrimPrefix(rel.TagName, "v")
	res.URL = rel.HTMLURL
	res.Available = res.Latest != "" && IsNewer(res.Latest, res.Current)
	return res, nil
}

// IsNewer reports whether latest is a higher version than current.
// Pre-release and build suffixes are ignored.
func IsNewer(latest, current string) bool {
	l, c := parse(latest), parse(current)
	n := max(len(l), len(c))
	for len(l) < n {
		l = append(l, 0)
	}
	for len(c) < n {
		c = append(c, 0)
	}

	for i := range n {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parse(v string) []int {
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		num, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, num)
	}
	return out
}
