package rag

import (
	"context"
	"testing"

	"github.com/geoqa/geoqa/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestUnavailableReturnsBackendUnavailable(t *testing.T) {
	_, err := Ask(context.Background(), Unavailable{}, "what is the flood policy?", "session-1")
	require.Error(t, err)

	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	require.Equal(t, core.ErrBackendUnavailable, coreErr.Type)
}

// stubService records the k and temperature it was called with, so Ask's
// default-constants wiring can be checked without a real RAG backend.
type stubService struct {
	gotK    int
	gotTemp float64
}

func (s *stubService) Ask(ctx context.Context, query, sessionID string, k int, temperature float64) (Response, error) {
	s.gotK = k
	s.gotTemp = temperature
	return Response{Analysis: "flood policy applies in zones A and B", Sources: []string{"policy.pdf"}, Confidence: 0.9}, nil
}

func TestAskAppliesDefaultKAndTemperature(t *testing.T) {
	svc := &stubService{}
	resp, err := Ask(context.Background(), svc, "what is the flood policy?", "session-1")
	require.NoError(t, err)
	require.Equal(t, defaultK, svc.gotK)
	require.Equal(t, defaultTemperature, svc.gotTemp)
	require.Equal(t, "flood policy applies in zones A and B", resp.Analysis)
	require.Equal(t, []string{"policy.pdf"}, resp.Sources)
}
