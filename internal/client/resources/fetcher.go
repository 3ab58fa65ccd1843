package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
)

// Fetcher resolves a resource reference to raw bytes over one of the two
// transport paths. It performs no caching and no retries; any failure
// surfaces as api.ErrUnavailable.
type Fetcher struct {
	gw           *api.Gateway
	staticPrefix string
}

func NewFetcher(gw *api.Gateway, staticPrefix string) *Fetcher {
	return &Fetcher{gw: gw, staticPrefix: staticPrefix}
}

// Fetch returns the resource bytes and content type for raw.
func (f *Fetcher) Fetch(ctx context.Context, raw string) ([]byte, string, error) {
	ref, err := Classify(raw, f.staticPrefix, f.gw.APIPrefix())
	if err != nil {
		return nil, "", err
	}

	var (
		data []byte
		ct   string
	)
	switch ref.Kind {
	case KindStatic:
		data, ct, err = f.gw.GetStaticBytes(ctx, ref.Path)
	default:
		data, ct, err = f.gw.GetBytes(ctx, ref.Path)
	}
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			return nil, "", err
		}
		// The gateway side effects (401 handling) have already run;
		// the fetch outcome for the caller is simply "unavailable".
		return nil, "", fmt.Errorf("%w: %v", api.ErrUnavailable, err)
	}
	return data, ct, nil
}
