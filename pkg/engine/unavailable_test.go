package engine

import (
	"context"
	"testing"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestUnavailableBackendAlwaysFailsBackendUnavailable(t *testing.T) {
	var backend ImageryBackend = UnavailableBackend{}
	_, err := backend.LoadCollection(context.Background(), "anything")
	require.Error(t, err)

	ce, ok := err.(*core.Error)
	require.True(t, ok)
	require.Equal(t, core.ErrBackendUnavailable, ce.Type)
}
