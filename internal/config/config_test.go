package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	l, err := cfg.LSBLayout()
	require.NoError(t, err)
	if diff := cmp.Diff(lsb.DefaultLayout(), l); diff != "" {
		t.Errorf("default layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "gosteg.yaml", `
layout:
  order: bgr
  framing: sentinel
  marker: "0xff00ff"
compression: none
output: bmp
server:
  addr: "127.0.0.1:9000"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	// Unset fields keep their defaults.
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.True(t, cfg.Server.OpenBrowser)
	assert.Equal(t, "json", cfg.Log.Format)

	l, err := cfg.LSBLayout()
	require.NoError(t, err)
	want := lsb.Layout{
		Order:   []lsb.Channel{lsb.Blue, lsb.Green, lsb.Red},
		Framing: lsb.Sentinel,
		Marker:  []byte{0xff, 0x00, 0xff},
	}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}

	o, err := cfg.StegoOptions()
	require.NoError(t, err)
	assert.Equal(t, container.BMP, o.Output)
	assert.Equal(t, "none", o.Compression)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "gosteg.json", `{"layout": {"order": "G"}, "output": "tiff"}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	l, err := cfg.LSBLayout()
	require.NoError(t, err)
	assert.Equal(t, []lsb.Channel{lsb.Green}, l.Order)
	assert.Equal(t, lsb.LengthPrefix, l.Framing)
	assert.Equal(t, "tiff", cfg.Output)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"bad extension", "cfg.toml", "x = 1", nil},
		{"bad yaml", "cfg.yaml", "layout: [", nil},
		{"alpha channel", "cfg.yaml", "layout:\n  order: RGBA\n", lsb.ErrInvalidLayout},
		{"duplicate channel", "cfg.json", `{"layout": {"order": "RR"}}`, lsb.ErrInvalidLayout},
		{"bad marker", "cfg.json", `{"layout": {"framing": "sentinel", "marker": "zz"}}`, lsb.ErrInvalidLayout},
		{"unknown codec", "cfg.json", `{"compression": "lz4"}`, payload.ErrUnknownCodec},
		{"sentinel with compression", "cfg.yaml", "layout:\n  framing: sentinel\ncompression: zstd\n", lsb.ErrInvalidLayout},
		{"lossy output", "cfg.json", `{"output": "jpeg"}`, container.ErrLossyFormat},
		{"bad log format", "cfg.json", `{"log": {"format": "xml"}}`, nil},
		{"zero upload", "cfg.json", `{"server": {"max_upload_bytes": 0}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	require.NoError(t, os.WriteFile(path, make([]byte, maxFileSize+1), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
