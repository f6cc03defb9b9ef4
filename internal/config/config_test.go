package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/apperr"
)

func setRequiredEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "pipeline.db"))
	t.Setenv("ARTIFACTS_PATH", filepath.Join(dir, "artifacts"))
	t.Setenv("BACKUP_PATH", filepath.Join(dir, "backups"))
	t.Setenv("ORIGINS", "reddit:SideProject")
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("LLM_MODEL", "gemini-2.5-flash")
	t.Setenv("STOREFRONT_ACCESS_TOKEN", "token")
	t.Setenv("DASHBOARD_ADDR", "127.0.0.1:8080")
}

func TestLoad_SucceedsWithAllRequiredFields(t *testing.T) {
	dir := t.TempDir()
	setRequiredEnv(t, dir)

	cfg, err := Load(filepath.Join(dir, ".env-does-not-exist"))
	require.NoError(t, err)
	require.Equal(t, "reddit:SideProject", cfg.Origins)
	require.Equal(t, 200000, cfg.MaxTokensPerRun)
}

func TestLoad_FailsWithConfigInvalidWhenOriginsEmpty(t *testing.T) {
	dir := t.TempDir()
	setRequiredEnv(t, dir)
	t.Setenv("ORIGINS", "")

	_, err := Load(filepath.Join(dir, ".env-does-not-exist"))
	require.Error(t, err)

	var invalid *apperr.ConfigInvalid
	require.True(t, errors.As(err, &invalid))
	require.NotEmpty(t, invalid.Reasons)
}

func TestLoad_FailsOnUnknownOriginKind(t *testing.T) {
	dir := t.TempDir()
	setRequiredEnv(t, dir)
	t.Setenv("ORIGINS", "carrierpigeon:nest")

	_, err := Load(filepath.Join(dir, ".env-does-not-exist"))
	require.Error(t, err)
}

func TestLoad_FailsWhenRequiredFieldMissing(t *testing.T) {
	dir := t.TempDir()
	setRequiredEnv(t, dir)
	t.Setenv("LLM_API_KEY", "")

	_, err := Load(filepath.Join(dir, ".env-does-not-exist"))
	require.Error(t, err)
}

func TestLoad_OverlaysNumericEnvVars(t *testing.T) {
	dir := t.TempDir()
	setRequiredEnv(t, dir)
	t.Setenv("MAX_TOKENS_PER_RUN", "5000")
	t.Setenv("MAX_USD_PER_RUN", "2.5")

	cfg, err := Load(filepath.Join(dir, ".env-does-not-exist"))
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.MaxTokensPerRun)
	require.InDelta(t, 2.5, cfg.MaxUSDPerRun, 0.0001)
}
