package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordClassifyTopLevelEmptyQuery(t *testing.T) {
	svc, res := keywordClassifyTopLevel("")
	require.Equal(t, ServiceSearch, svc)
	require.Equal(t, 0.0, res.confidence)
}

func TestKeywordClassifyTopLevelGEEQuery(t *testing.T) {
	svc, res := keywordClassifyTopLevel("show me the NDVI and satellite imagery analysis for this polygon")
	require.Equal(t, ServiceGEE, svc)
	require.Greater(t, res.confidence, 0.0)
}

func TestKeywordClassifyTopLevelRAGQuery(t *testing.T) {
	svc, _ := keywordClassifyTopLevel("what is the definition of this policy regulation document")
	require.Equal(t, ServiceRAG, svc)
}

func TestKeywordClassifyTopLevelNoMatchDefaultsSearch(t *testing.T) {
	svc, res := keywordClassifyTopLevel("asdkjaslkdj qwopiqwoei")
	require.Equal(t, ServiceSearch, svc)
	require.Equal(t, 0.1, res.confidence)
}

func TestKeywordClassifyGEESubIntentDefaultsLULC(t *testing.T) {
	sub, res := keywordClassifyGEESubIntent("asdkjaslkdj")
	require.Equal(t, SubLULC, sub)
	require.Equal(t, 0.3, res.confidence)
}

func TestKeywordClassifyGEESubIntentMatchesNDVI(t *testing.T) {
	sub, _ := keywordClassifyGEESubIntent("vegetation health and greenness of the forest canopy")
	require.Equal(t, SubNDVI, sub)
}

func TestKeywordClassifyGEESubIntentMatchesLST(t *testing.T) {
	sub, _ := keywordClassifyGEESubIntent("urban heat island thermal temperature analysis")
	require.Equal(t, SubLST, sub)
}

func TestExtractTimeRangeSummer(t *testing.T) {
	tr := extractTimeRange("NDVI for summer vegetation")
	require.NotNil(t, tr)
	require.Equal(t, "2023-06-01", tr.Start)
}

func TestExtractMetricsFindsMultiple(t *testing.T) {
	metrics := extractMetrics("what is the mean NDVI and maximum temperature change")
	require.Contains(t, metrics, "mean")
	require.Contains(t, metrics, "ndvi")
	require.Contains(t, metrics, "max")
	require.Contains(t, metrics, "temperature")
	require.Contains(t, metrics, "change")
}
