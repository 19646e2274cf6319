package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	wm := cfg.WatermarkConfig()
	assert.Equal(t, DefaultText, wm.Text)
	assert.Equal(t, DefaultFont, wm.FontFamily)
	assert.Equal(t, DefaultFontSize, wm.FontSizePt)
	assert.Equal(t, types.White, wm.Color)
	assert.Equal(t, types.Center, cfg.NormalizedPosition())
	assert.True(t, cfg.Fonts.FcMatch)
	assert.Equal(t, 3, cfg.Watch.SettleSeconds)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WATERMARK_TEXT", "hello")
	t.Setenv("WATERMARK_SIZE", "72")
	t.Setenv("WATERMARK_COLOR", "#FF000080")
	t.Setenv("WATERMARK_POS_X", "0.1")
	t.Setenv("WATERMARK_FONT_DIRS", "/a,/b")

	cfg, err := Load("")
	require.NoError(t, err)

	wm := cfg.WatermarkConfig()
	assert.Equal(t, "hello", wm.Text)
	assert.Equal(t, 72, wm.FontSizePt)
	assert.Equal(t, types.RGBA{R: 255, A: 128}, wm.Color)
	assert.InDelta(t, 0.1, cfg.NormalizedPosition().X, 1e-9)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Fonts.Dirs)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
watermark:
  text: "file text"
  font: "DejaVu Sans"
  font_size: 24
  color: "0,0,0,200"
position:
  x: 0.9
  y: 0.1
output_dir: /tmp/out
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file text", cfg.Watermark.Text)
	assert.Equal(t, "DejaVu Sans", cfg.Watermark.Font)
	assert.Equal(t, types.RGBA{A: 200}, cfg.WatermarkConfig().Color)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.InDelta(t, 0.9, cfg.Position.X, 1e-9)
}

func TestLoad_FileEmptyTextIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
watermark:
  text: ""
  font_size: 30
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Watermark.Text)
	assert.Equal(t, 30, cfg.Watermark.FontSize)
	assert.Equal(t, DefaultFont, cfg.Watermark.Font)
}

func TestLoad_FileWithoutTextUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watermark:\n  font: Go\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultText, cfg.Watermark.Text)
}

func TestLoad_EnvEmptyTextIsKept(t *testing.T) {
	t.Setenv("WATERMARK_TEXT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Watermark.Text)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"size too small", func(c *Config) { c.Watermark.FontSize = 4 }},
		{"size too big", func(c *Config) { c.Watermark.FontSize = 201 }},
		{"bad color", func(c *Config) { c.Watermark.Color = "white" }},
		{"position out of range", func(c *Config) { c.Position.Y = 1.5 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_EmptyTextAllowed(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Watermark.Text = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ApplyOptions(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.OutputDir = "/out"

	opts := cfg.ApplyOptions([]string{"a.mp4"})
	assert.Equal(t, []string{"a.mp4"}, opts.InputPaths)
	assert.Equal(t, "/out", opts.OutputDir)
	assert.Equal(t, DefaultText, opts.Watermark.Text)
	assert.Equal(t, uint64(256), opts.MinFreeMemoryMB)
	assert.True(t, opts.FcMatch)
}
