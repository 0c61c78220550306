package config_test

import (
	"testing"
	"time"

	"github.com/jhoicas/fiscaliza-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout())
	assert.Equal(t, 30, cfg.Dashboard.DefaultDays)
	assert.Equal(t, 5*time.Minute, cfg.Compliance.ReferenceTTL())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("COMPLIANCE_PARALLEL", "true")
	t.Setenv("AI_TIMEOUT_SECONDS", "3")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.AIProviderOpenAI, cfg.AI.Provider)
	assert.True(t, cfg.Compliance.Parallel)
	assert.Equal(t, 3*time.Second, cfg.AI.Timeout())
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_ProveedorDesconocido(t *testing.T) {
	t.Setenv("AI_PROVIDER", "watson")
	_, err := config.Load()
	require.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "fiscaliza", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/fiscaliza?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
