package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

func TestEmptyConfig_Defaults(t *testing.T) {
	cfg := EmptyConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should be valid: %v", err)
	}

	if got := cfg.GetListen(); got != ":8080" {
		t.Errorf("GetListen() = %q, want :8080", got)
	}
	if got := cfg.GetDisplayUnits(); got != "kmph" {
		t.Errorf("GetDisplayUnits() = %q, want kmph", got)
	}
	if got := cfg.GetCacheEntries(); got != 128 {
		t.Errorf("GetCacheEntries() = %d, want 128", got)
	}
	if got := cfg.GetCacheDB(); got != ":memory:" {
		t.Errorf("GetCacheDB() = %q, want :memory:", got)
	}
	if got := cfg.GetRateLimit(); got != 0 {
		t.Errorf("GetRateLimit() = %f, want 0", got)
	}
	if got := cfg.GetRateBurst(); got != 5 {
		t.Errorf("GetRateBurst() = %d, want 5", got)
	}
	if got := cfg.GetLogLevel(); got != "info" {
		t.Errorf("GetLogLevel() = %q, want info", got)
	}
	if got := cfg.GetLogFormat(); got != "text" {
		t.Errorf("GetLogFormat() = %q, want text", got)
	}
	if got := cfg.GetLogOutput(); got != "stderr" {
		t.Errorf("GetLogOutput() = %q, want stderr", got)
	}
	if cfg.GetChartWidthIn() <= 0 || cfg.GetChartHeightIn() <= 0 {
		t.Errorf("chart size defaults must be positive, got %fx%f", cfg.GetChartWidthIn(), cfg.GetChartHeightIn())
	}
	if !strings.HasPrefix(cfg.GetEchartsAssetsHost(), "https://") {
		t.Errorf("GetEchartsAssetsHost() = %q, want an https URL", cfg.GetEchartsAssetsHost())
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racetime.json")
	content := `{"listen": "127.0.0.1:9000", "display_units": "mph", "cache_entries": 4}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got := cfg.GetListen(); got != "127.0.0.1:9000" {
		t.Errorf("GetListen() = %q", got)
	}
	if got := cfg.GetDisplayUnits(); got != "mph" {
		t.Errorf("GetDisplayUnits() = %q", got)
	}
	if got := cfg.GetCacheEntries(); got != 4 {
		t.Errorf("GetCacheEntries() = %d", got)
	}
	// Omitted fields keep defaults.
	if got := cfg.GetCacheDB(); got != ":memory:" {
		t.Errorf("GetCacheDB() = %q, want default", got)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racetime.yaml")
	content := "log_level: debug\nlog_format: json\nchart_width_in: 8.5\ncache_db: runs.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())
	assert.Equal(t, 8.5, cfg.GetChartWidthIn())
	assert.Equal(t, "runs.db", cfg.GetCacheDB())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "racetime.toml", "listen = ':1'", "extension"},
		{"bad json", "bad.json", "{not json", "failed to parse"},
		{"bad yaml", "bad.yml", "listen: [", "failed to parse"},
		{"invalid units", "units.json", `{"display_units": "furlongs"}`, "display_units"},
		{"negative cache", "cache.json", `{"cache_entries": -1}`, "cache_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stat")
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "huge.json")
		require.NoError(t, os.WriteFile(path, make([]byte, 1024*1024+1), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"all set", Config{
			Listen:        ptrString(":0"),
			DisplayUnits:  ptrString("mps"),
			CacheEntries:  ptrInt(0),
			ChartWidthIn:  ptrFloat64(6),
			ChartHeightIn: ptrFloat64(3),
			LogFormat:     ptrString("json"),
		}, false},
		{"bad units", Config{DisplayUnits: ptrString("knots")}, true},
		{"negative entries", Config{CacheEntries: ptrInt(-5)}, true},
		{"zero width", Config{ChartWidthIn: ptrFloat64(0)}, true},
		{"negative height", Config{ChartHeightIn: ptrFloat64(-1)}, true},
		{"bad format", Config{LogFormat: ptrString("xml")}, true},
		{"negative rate", Config{RateLimit: ptrFloat64(-1)}, true},
		{"zero burst", Config{RateBurst: ptrInt(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RACETIME_LISTEN":        ":7000",
		"RACETIME_DISPLAY_UNITS": "mps",
		"RACETIME_CACHE_ENTRIES": "16",
		"RACETIME_RATE_LIMIT":    "2.5",
		"RACETIME_LOG_OUTPUT":    "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := &Config{Listen: ptrString(":1"), LogOutput: ptrString("stdout")}
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, ":7000", cfg.GetListen())
	assert.Equal(t, "mps", cfg.GetDisplayUnits())
	assert.Equal(t, 16, cfg.GetCacheEntries())
	assert.Equal(t, 2.5, cfg.GetRateLimit())
	assert.Equal(t, "stdout", cfg.GetLogOutput(), "empty variables are ignored")

	t.Run("bad integer", func(t *testing.T) {
		bad := func(k string) (string, bool) {
			if k == "RACETIME_CACHE_ENTRIES" {
				return "many", true
			}
			return "", false
		}
		err := EmptyConfig().ApplyEnv(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CACHE_ENTRIES")
	})

	t.Run("bad float", func(t *testing.T) {
		bad := func(k string) (string, bool) {
			if k == "RACETIME_RATE_LIMIT" {
				return "fast", true
			}
			return "", false
		}
		err := EmptyConfig().ApplyEnv(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT")
	})

	t.Run("invalid value", func(t *testing.T) {
		bad := func(k string) (string, bool) {
			if k == "RACETIME_DISPLAY_UNITS" {
				return "parsecs", true
			}
			return "", false
		}
		assert.Error(t, EmptyConfig().ApplyEnv(bad))
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RACETIME_TEST_DOTENV=loaded\nRACETIME_TEST_PRESET=file\n"), 0644))

	t.Setenv("RACETIME_TEST_PRESET", "shell")
	t.Cleanup(func() { os.Unsetenv("RACETIME_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("RACETIME_TEST_DOTENV"))
	assert.Equal(t, "shell", os.Getenv("RACETIME_TEST_PRESET"), "existing variables win")
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racetime.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"display_units": "mph", "listen": ":9"}`), 0644))
	t.Setenv("RACETIME_LISTEN", ":9100")

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "mph", cfg.GetDisplayUnits())
	assert.Equal(t, ":9100", cfg.GetListen(), "environment overrides file")

	_, err = Resolve(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
