package telemetry

import (
	"bytes"
	"testing"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{LogLevel: "info", LogFormat: "json"}},
		{name: "pretty upper case", cfg: Config{LogLevel: "DEBUG", LogFormat: "Pretty"}},
		{name: "bad level", cfg: Config{LogLevel: "loud", LogFormat: "json"}, wantErr: true},
		{name: "bad format", cfg: Config{LogLevel: "info", LogFormat: "xml"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("TELEMETRY_LOG_LEVEL", "warn")
	t.Setenv("TELEMETRY_STATSD_TAGS", "shard:1,env:test")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"shard:1", "env:test"}, cfg.StatsdTags)
}

func TestOptions_Apply(t *testing.T) {
	t.Parallel()

	opt := newDefaultOptions()
	require.Error(t, opt.validate())

	opt.apply(Options{ServiceName: "roseshard", LogLevel: "debug", LogFormat: LogFormatPretty})
	require.NoError(t, opt.validate())
	assert.Equal(t, "roseshard", opt.ServiceName)

	opt.apply(Options{LogLevel: "error"})
	assert.Equal(t, LogFormatPretty, opt.LogFormat, "zero values don't override")
	assert.Equal(t, "error", opt.LogLevel)
}

func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger(Options{LogLevel: "info", LogFormat: LogFormatJSON}, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Str("system", "movement").Msg("tick")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tick", line["message"])
	assert.Equal(t, "movement", line["system"])
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestNewStatsd_NoAddressIsNoop(t *testing.T) {
	t.Parallel()

	client, err := newStatsd(Options{ServiceName: "roseshard"})
	require.NoError(t, err)
	assert.IsType(t, &ddstatsd.NoOpClient{}, client)
}
