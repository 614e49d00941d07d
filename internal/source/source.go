package source

import (
	"context"
	"fmt"
	"image"
	"path"
	"strings"
)

// Fetcher turns a frame locator into a decoded image.
// Implementations must be safe for concurrent use: the loader calls Fetch
// for every frame at once.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (image.Image, error)
	Close() error
}

// New picks a fetcher for the asset base: http(s) URLs are fetched over the
// network, anything else is treated as a local directory.
func New(base string) (Fetcher, error) {
	switch {
	case strings.HasPrefix(base, "http://"), strings.HasPrefix(base, "https://"):
		return NewHTTPFetcher(base, nil), nil
	case base == "":
		return nil, fmt.Errorf("источник кадров не задан")
	default:
		return NewDirFetcher(base)
	}
}

// splitLocator breaks "/root/segment/file.ext" into the segment folder and file name.
func splitLocator(locator string) (dir, file string) {
	clean := path.Clean("/" + locator)
	return path.Dir(clean), path.Base(clean)
}
