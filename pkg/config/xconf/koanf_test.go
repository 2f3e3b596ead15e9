package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkConfig struct {
	Enabled bool     `koanf:"enabled"`
	Outputs []string `koanf:"outputs"`
	File    struct {
		Dir          string `koanf:"dir"`
		TriggerLines int    `koanf:"trigger_lines"`
		KeepLines    int    `koanf:"keep_lines"`
	} `koanf:"file"`
	Live struct {
		URL         string        `koanf:"url"`
		DialTimeout time.Duration `koanf:"dial_timeout"`
	} `koanf:"live"`
}

const testYAML = `
enabled: true
outputs: [structured, file]
file:
  dir: /var/log/app
  trigger_lines: 200
  keep_lines: 100
live:
  url: ws://localhost:9000/logs
  dial_timeout: 3s
`

const testJSON = `{
  "enabled": true,
  "outputs": ["structured", "file"],
  "file": {"dir": "/var/log/app", "trigger_lines": 200, "keep_lines": 100},
  "live": {"url": "ws://localhost:9000/logs", "dial_timeout": "3s"}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func assertSink(t *testing.T, got sinkConfig) {
	t.Helper()
	assert.True(t, got.Enabled)
	assert.Equal(t, []string{"structured", "file"}, got.Outputs)
	assert.Equal(t, "/var/log/app", got.File.Dir)
	assert.Equal(t, 200, got.File.TriggerLines)
	assert.Equal(t, 100, got.File.KeepLines)
	assert.Equal(t, "ws://localhost:9000/logs", got.Live.URL)
	assert.Equal(t, 3*time.Second, got.Live.DialTimeout)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
	}{
		{name: "YAML", file: "xlog.yaml", content: testYAML, format: FormatYAML},
		{name: "YML 扩展名", file: "xlog.yml", content: testYAML, format: FormatYAML},
		{name: "JSON", file: "xlog.json", content: testJSON, format: FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			cfg, err := New(path)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Path())
			assert.Equal(t, tt.format, cfg.Format())

			var got sinkConfig
			require.NoError(t, cfg.Unmarshal("", &got))
			assertSink(t, got)
			assert.Equal(t, 200, cfg.Client().Int("file.trigger_lines"))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("/etc/xlog.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testJSON), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())

	var got sinkConfig
	require.NoError(t, cfg.Unmarshal("", &got))
	assertSink(t, got)

	assert.ErrorIs(t, cfg.Reload(), ErrNotFromFile)

	_, err = NewFromBytes([]byte("a: 1"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnmarshal_KeepsDefaults(t *testing.T) {
	cfg, err := NewFromBytes([]byte("file:\n  keep_lines: 7\n"), FormatYAML)
	require.NoError(t, err)

	got := sinkConfig{Enabled: true}
	got.File.Dir = "logs"
	got.File.TriggerLines = 20000
	require.NoError(t, cfg.Unmarshal("", &got))

	assert.True(t, got.Enabled)
	assert.Equal(t, "logs", got.File.Dir)
	assert.Equal(t, 20000, got.File.TriggerLines)
	assert.Equal(t, 7, got.File.KeepLines)
}

func TestUnmarshal_SubPath(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	var file struct {
		Dir string `koanf:"dir"`
	}
	require.NoError(t, cfg.Unmarshal("file", &file))
	assert.Equal(t, "/var/log/app", file.Dir)
}

func TestNewFromBytes_Empty(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)

	got := sinkConfig{Enabled: true}
	require.NoError(t, cfg.Unmarshal("", &got))
	assert.True(t, got.Enabled)
}

func TestReload(t *testing.T) {
	path := writeFile(t, "xlog.yaml", "file:\n  keep_lines: 1\n")
	cfg, err := New(path)
	require.NoError(t, err)
	old := cfg.Client()

	require.NoError(t, os.WriteFile(path, []byte("file:\n  keep_lines: 2\n"), 0600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, 2, cfg.Client().Int("file.keep_lines"))
	// 旧快照不受影响
	assert.Equal(t, 1, old.Int("file.keep_lines"))

	// 解析失败时保留旧配置
	require.NoError(t, os.WriteFile(path, []byte("file: [unclosed"), 0600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, 2, cfg.Client().Int("file.keep_lines"))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "a.yaml", want: FormatYAML},
		{path: "a.YML", want: FormatYAML},
		{path: "a.json", want: FormatJSON},
		{path: "a.ini", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
