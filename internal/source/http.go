package source

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
)

// HTTPFetcher loads frames from a web server rooted at base.
// No timeout is imposed: a stalled frame stays pending until its request fails.
type HTTPFetcher struct {
	base   string
	client *http.Client
}

func NewHTTPFetcher(base string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: strings.TrimSuffix(base, "/"), client: client}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, locator string) (image.Image, error) {
	url := h.base + "/" + strings.TrimPrefix(locator, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

func (h *HTTPFetcher) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
