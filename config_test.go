package pm2005

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pm2005.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeConfig(t, `
port: /dev/ttyS3
backend: bugst
parity: even
exchange_timeout: 750ms
interval: 10s
count: 3
verify_checksum: true
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS3", s.Port)
	assert.Equal(t, BackendBugst, s.Backend)
	assert.Equal(t, "E", s.Parity)
	assert.Equal(t, 750*time.Millisecond, s.ExchangeTimeout)
	assert.Equal(t, 10*time.Second, s.Interval)
	assert.Equal(t, 3, s.Count)
	assert.True(t, s.VerifyChecksum)

	// untouched keys keep defaults
	assert.Equal(t, DefaultBaudRate, s.BaudRate)
	assert.Equal(t, 8, s.DataBits)
	assert.Equal(t, serialIdleTimeout, s.IdleTimeout)
}

func TestLoadSettingsExplicitZeroTimeout(t *testing.T) {
	s, err := LoadSettings(writeConfig(t, "exchange_timeout: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, s.ExchangeTimeout)
}

func TestLoadSettingsZeroReadTimeout(t *testing.T) {
	s, err := LoadSettings(writeConfig(t, "read_timeout: 0s\n"))
	require.NoError(t, err)
	assert.Equal(t, serialTimeout, s.ReadTimeout, "reads must stay bounded")
	assert.Equal(t, serialTimeout, s.Handler(nil).Timeout)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSettings(writeConfig(t, "port: [unterminated\n"))
	assert.Error(t, err)

	_, err = LoadSettings(writeConfig(t, "parity: mark\n"))
	assert.ErrorContains(t, err, "unsupported parity")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"empty port", func(s *Settings) { s.Port = " " }, "serial port is required"},
		{"bad backend", func(s *Settings) { s.Backend = "tarm" }, "unsupported backend"},
		{"bad data bits", func(s *Settings) { s.DataBits = 9 }, "invalid data bits"},
		{"bad stop bits", func(s *Settings) { s.StopBits = 3 }, "invalid stop bits"},
		{"negative timeout", func(s *Settings) { s.ExchangeTimeout = -time.Second }, "must not be negative"},
		{"negative count", func(s *Settings) { s.Count = -1 }, "invalid count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			_, err := s.Normalize()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	s, err := Settings{Port: "COM7", Backend: "GOBURROW", Parity: "none"}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, BackendGoburrow, s.Backend)
	assert.Equal(t, DefaultBaudRate, s.BaudRate)
	assert.Equal(t, 8, s.DataBits)
	assert.Equal(t, 1, s.StopBits)
	assert.Equal(t, "N", s.Parity)
	assert.Equal(t, serialTimeout, s.ReadTimeout)
	assert.Equal(t, time.Second, s.Interval)
}

func TestSettingsHandler(t *testing.T) {
	s := DefaultSettings()
	s.Port = "COM7"
	s.ReadTimeout = 40 * time.Millisecond
	s.Backend = BackendBugst

	h := s.Handler(nil)
	assert.Equal(t, "COM7", h.Address)
	assert.Equal(t, 9600, h.BaudRate)
	assert.Equal(t, 40*time.Millisecond, h.Timeout)
	assert.NotNil(t, h.Opener)

	s.Backend = BackendGoburrow
	assert.Nil(t, s.Handler(nil).Opener)
}

func TestSettingsOptions(t *testing.T) {
	s := DefaultSettings()
	s.ExchangeTimeout = 0
	s.VerifyChecksum = true
	s.Debug = true

	var diag bytes.Buffer
	cfg := defaultConfig()
	for _, opt := range s.Options(nil, &diag) {
		opt(&cfg)
	}
	assert.Zero(t, cfg.Timeout)
	assert.True(t, cfg.VerifyChecksum)
	assert.Same(t, &diag, cfg.Diagnostics)

	s.Debug = false
	cfg = defaultConfig()
	for _, opt := range s.Options(nil, &diag) {
		opt(&cfg)
	}
	assert.Nil(t, cfg.Diagnostics)
}
