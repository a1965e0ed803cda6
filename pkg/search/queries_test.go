package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateQueriesCapsAtFive(t *testing.T) {
	queries := GenerateQueries("ndvi", "Pune", []string{"mean", "max", "change", "variance"})
	require.LessOrEqual(t, len(queries), maxQueries)
}

func TestGenerateQueriesFallsBackToGeneralForUnknownType(t *testing.T) {
	queries := GenerateQueries("unknown-type", "Pune", nil)
	require.NotEmpty(t, queries)
	for _, q := range queries {
		require.Contains(t, q, "Pune")
	}
}

func TestGenerateQueriesAlwaysIncludesLocation(t *testing.T) {
	queries := GenerateQueries("ndvi", "Mumbai", []string{"mean"})
	for _, q := range queries {
		require.True(t, strings.Contains(q, "Mumbai"))
	}
}

func TestIncludeDomainsReturnsCredibleHints(t *testing.T) {
	domains := IncludeDomains()
	require.NotEmpty(t, domains)
	require.Contains(t, domains, "nasa.gov")
}

func TestIncludeDomainsReturnsACopy(t *testing.T) {
	a := IncludeDomains()
	a[0] = "mutated"
	b := IncludeDomains()
	require.NotEqual(t, "mutated", b[0])
}
