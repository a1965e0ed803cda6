package engine

import (
	"context"

	"github.com/geoqa/geoqa/pkg/core"
)

// UnavailableBackend is the zero-dependency ImageryBackend used when no
// IMAGERY_CREDENTIALS_JSON/IMAGERY_CREDENTIALS_PATH is configured: every
// call fails with ErrBackendUnavailable so the dispatcher's existing
// degrade-to-search path handles a missing GEE-equivalent credential the
// same way it handles a down backend, matching rag.Unavailable's shape.
type UnavailableBackend struct{}

func (UnavailableBackend) LoadCollection(ctx context.Context, assetID string) (Image, error) {
	return nil, core.NewError(core.ErrBackendUnavailable, "no imagery backend configured")
}
