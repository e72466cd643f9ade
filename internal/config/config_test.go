package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Path: "/data/bookhaven.db"},
		Uploads: UploadsConfig{
			BasePath:       "/data/images",
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Search: SearchConfig{DataPath: "/data/search"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Uploads.BasePath = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Search.DataPath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_MaxUploadBytes(t *testing.T) {
	cfg := validConfig()
	cfg.Uploads.MaxUploadBytes = 0
	assert.Error(t, cfg.Validate())

	cfg.Uploads.MaxUploadBytes = -1
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/images", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "images"), got)

	got, err = expandPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	got, err = expandPath("/abs/path/../path", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("BOOKHAVEN_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "BOOKHAVEN_TEST_KEY", "fallback"))
	assert.Equal(t, "from-env", getConfigValue("", "BOOKHAVEN_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getConfigValue("", "BOOKHAVEN_TEST_KEY_UNSET", "fallback"))
}

func TestGetInt64ConfigValue(t *testing.T) {
	t.Setenv("BOOKHAVEN_TEST_INT", "2048")

	assert.Equal(t, int64(2048), getInt64ConfigValue("", "BOOKHAVEN_TEST_INT", 99))
	assert.Equal(t, int64(99), getInt64ConfigValue("", "BOOKHAVEN_TEST_INT_UNSET", 99))
	assert.Equal(t, int64(99), getInt64ConfigValue("not-a-number", "BOOKHAVEN_TEST_INT_UNSET", 99))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\n\nBOOKHAVEN_ENVFILE_A=hello\nBOOKHAVEN_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BOOKHAVEN_ENVFILE_A")
		os.Unsetenv("BOOKHAVEN_ENVFILE_B")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("BOOKHAVEN_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("BOOKHAVEN_ENVFILE_B"))
}

func TestLoadEnvFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BOOKHAVEN_ENVFILE_C=file\n"), 0o600))
	t.Setenv("BOOKHAVEN_ENVFILE_C", "real")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "real", os.Getenv("BOOKHAVEN_ENVFILE_C"))
}

func TestLoadEnvFile_BadFormat(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NOT A PAIR\n"), 0o600))

	assert.Error(t, loadEnvFile(envPath))
}
