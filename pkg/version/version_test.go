package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfoIncludesRuntimeGoVersion(t *testing.T) {
	info := Info()
	require.Equal(t, Version, info["version"])
	require.Equal(t, Commit, info["commit"])
	require.Equal(t, BuildDate, info["build_date"])
	require.NotEmpty(t, info["go_version"])
}
