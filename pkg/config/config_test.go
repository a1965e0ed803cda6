package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoEnvOrFlags(t *testing.T) {
	os.Clearenv()
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, defaultMaxROIKM2, cfg.MaxROIKM2)
	require.Equal(t, defaultEngineDeadlineSecs, cfg.EngineDeadlineSecs)
	require.False(t, cfg.DisableGEE)
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("MAX_ROI_KM2", "1000")
	os.Setenv("GEOQA_DISABLE_GEE", "true")
	os.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	defer os.Clearenv()

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 1000.0, cfg.MaxROIKM2)
	require.True(t, cfg.DisableGEE)
	require.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("MAX_ROI_KM2", "1000")
	defer os.Clearenv()

	cfg, err := Load([]string{"-max-roi-km2", "5000"})
	require.NoError(t, err)
	require.Equal(t, 5000.0, cfg.MaxROIKM2)
}
