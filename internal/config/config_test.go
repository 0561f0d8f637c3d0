package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 5001, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "karaoke_db", cfg.Database.Database)
				assert.Equal(t, "http://localhost:5002", cfg.Services.Separation.BaseURL)
				assert.Equal(t, "http://localhost:5003", cfg.Services.Transcription.BaseURL)
				assert.Equal(t, time.Duration(0), cfg.Services.Separation.Timeout)
				assert.Equal(t, "shared_data/outputs", cfg.Media.OutputDir)
				assert.Equal(t, int64(104857600), cfg.Media.MaxUploadSize)
				assert.Equal(t, "queueing-proxy-service", cfg.App.Name)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:      "invalid server port",
			mutate:    func(cfg *Config) { cfg.Server.Port = 0 },
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(cfg *Config) { cfg.Database.Host = "" },
			errString: "database host is required",
		},
		{
			name:      "invalid database port",
			mutate:    func(cfg *Config) { cfg.Database.Port = 70000 },
			errString: "invalid database port",
		},
		{
			name:      "missing database name",
			mutate:    func(cfg *Config) { cfg.Database.Database = "" },
			errString: "database name is required",
		},
		{
			name:      "missing separation base url",
			mutate:    func(cfg *Config) { cfg.Services.Separation.BaseURL = "" },
			errString: "separation service base_url is required",
		},
		{
			name:      "missing transcription base url",
			mutate:    func(cfg *Config) { cfg.Services.Transcription.BaseURL = "" },
			errString: "transcription service base_url is required",
		},
		{
			name:      "missing media output dir",
			mutate:    func(cfg *Config) { cfg.Media.OutputDir = "" },
			errString: "media output_dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errString == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			}
		})
	}
}
