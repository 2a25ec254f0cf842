package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/pkg/ruleset"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal config gets defaults",
			yaml: `
store:
  backend: memory
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "memory", cfg.Store.Backend)
				assert.InDelta(t, 0.05, cfg.Alerts.PercentThreshold, 0.0001)
				assert.Equal(t, 6*time.Hour, cfg.Recheck.Interval)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "postgres backend requires connection settings",
			yaml: `
store:
  backend: postgres
`,
			wantErr: "database.host is required",
		},
		{
			name: "postgres backend with settings builds DSN",
			yaml: `
store:
  backend: postgres
database:
  host: db.internal
  name: pricescout
  user: scout
  password: secret
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
				assert.Contains(t, cfg.Database.DSN(), "sslmode=disable")
				assert.Equal(t, 5432, cfg.Database.Port)
			},
		},
		{
			name: "env var substitution",
			yaml: `
store:
  backend: postgres
database:
  host: localhost
  name: pricescout
  user: scout
  password: ${TEST_DB_PASSWORD}
`,
			envVars: map[string]string{"TEST_DB_PASSWORD": "hunter2"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "hunter2", cfg.Database.Password)
			},
		},
		{
			name: "unknown store backend rejected",
			yaml: `
store:
  backend: sqlite
`,
			wantErr: "store.backend must be one of",
		},
		{
			name: "extraction overrides flow into ruleset config",
			yaml: `
extraction:
  biases:
    price: -2.0
  thresholds:
    image: 3.0
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				rc, err := cfg.Extraction.RulesetConfig()
				require.NoError(t, err)
				assert.InDelta(t, -2.0, rc.Biases[ruleset.FeaturePrice], 0.0001)
				assert.InDelta(t, 3.0, rc.Thresholds[ruleset.FeatureImage], 0.0001)
				// Untouched values keep their defaults.
				assert.Equal(t, ruleset.DefaultCoefficients(), rc.Coefficients)
			},
		},
		{
			name: "wrong coefficient count rejected",
			yaml: `
extraction:
  coefficients: [1.0, 2.0]
`,
			wantErr: "extraction",
		},
		{
			name: "unknown bias feature rejected",
			yaml: `
extraction:
  biases:
    banner: 1.0
`,
			wantErr: `unknown bias feature "banner"`,
		},
		{
			name: "percent threshold out of range rejected",
			yaml: `
alerts:
  percent_threshold: 1.5
`,
			wantErr: "alerts.percent_threshold",
		},
		{
			name: "discord enabled without webhook rejected",
			yaml: `
notifications:
  discord:
    enabled: true
`,
			wantErr: "notifications.discord.webhook_url",
		},
		{
			name: "tracing enabled without endpoint rejected",
			yaml: `
tracing:
  enabled: true
`,
			wantErr: "tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)

	rc, err := cfg.Extraction.RulesetConfig()
	require.NoError(t, err)
	require.NoError(t, rc.Validate())
}
