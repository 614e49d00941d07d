//go:build !cgo

package host

import (
	"context"
	"errors"
	"log"

	"github.com/ivlev/scrollwalk/internal/config"
	"github.com/ivlev/scrollwalk/internal/source"
)

func RunWindow(_ context.Context, _ *config.Config, _ source.Fetcher, _ *log.Logger) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
