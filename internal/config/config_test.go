package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationEnv(t *testing.T) {
	t.Setenv("STAGE_TIMEOUT", "90s")
	require.Equal(t, 90*time.Second, durationEnv("STAGE_TIMEOUT", time.Minute))

	t.Setenv("STAGE_TIMEOUT", "garbage")
	require.Equal(t, time.Minute, durationEnv("STAGE_TIMEOUT", time.Minute))

	require.Equal(t, time.Minute, durationEnv("UNSET_TIMEOUT_KEY", time.Minute))
}

func TestResolveArtifactUseSSL(t *testing.T) {
	require.False(t, resolveArtifactUseSSL("local"))

	t.Setenv("ARTIFACT_S3_USE_SSL", "false")
	require.False(t, resolveArtifactUseSSL("prod"))

	t.Setenv("ARTIFACT_S3_USE_SSL", "not-a-bool")
	require.True(t, resolveArtifactUseSSL("prod"))
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "x", firstNonEmpty("", "  ", "x", "y"))
	require.Equal(t, "", firstNonEmpty("", "  "))
}
