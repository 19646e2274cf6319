package config

import (
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// ApplyOptions defines options for watermarking a batch of videos
type ApplyOptions struct {
	InputPaths []string
	OutputDir  string
	Watermark  types.WatermarkConfig
	Position   types.NormalizedPosition

	FontDirs        []string
	FcMatch         bool
	MinFreeMemoryMB uint64
	Verbose         bool
}

const (
	// Output naming
	OutputSuffix = "_watermarked"
	OutputFormat = "mp4"

	// Margins applied when mapping the normalized position to pixels
	VideoMargin   = 5 // keeps the watermark off the video edge
	PreviewMargin = 0

	// Accepted font size range in points
	MinFontSize = 8
	MaxFontSize = 200

	// Temporary directory prefix for the rendered overlay
	TempDirPrefix = "video_watermark_"

	// Error summaries longer than this are cut off
	MaxSummaryLength = 1000

	// Defaults
	DefaultText     = "© BProgy"
	DefaultFont     = "Arial"
	DefaultFontSize = 40
	DefaultColor    = "#FFFFFFFF"
)

// Config is the file and environment backed configuration.
type Config struct {
	Watermark WatermarkSection `yaml:"watermark"`
	Position  PositionSection  `yaml:"position"`
	OutputDir string           `yaml:"output_dir" env:"WATERMARK_OUTPUT_DIR"`
	Fonts     FontSection      `yaml:"fonts"`
	Resources ResourceSection  `yaml:"resources"`
	Watch     WatchSection     `yaml:"watch"`
	Log       LogSection       `yaml:"log"`
}

type WatermarkSection struct {
	// Text has no env-default: an explicit empty text must survive loading.
	Text     string `yaml:"text" env:"WATERMARK_TEXT"`
	Font     string `yaml:"font" env:"WATERMARK_FONT" env-default:"Arial"`
	FontSize int    `yaml:"font_size" env:"WATERMARK_SIZE" env-default:"40" validate:"min=8,max=200"`
	Color    string `yaml:"color" env:"WATERMARK_COLOR" env-default:"#FFFFFFFF" validate:"color"`
}

type PositionSection struct {
	X float64 `yaml:"x" env:"WATERMARK_POS_X" env-default:"0.5" validate:"gte=0,lte=1"`
	Y float64 `yaml:"y" env:"WATERMARK_POS_Y" env-default:"0.5" validate:"gte=0,lte=1"`
}

type FontSection struct {
	// Dirs replaces the platform font directories when set.
	Dirs    []string `yaml:"dirs" env:"WATERMARK_FONT_DIRS" env-separator:","`
	FcMatch bool     `yaml:"fc_match" env:"WATERMARK_FC_MATCH" env-default:"true"`
}

type ResourceSection struct {
	// MinFreeMemoryMB fails a job before encoding when less memory is
	// available. 0 disables the check.
	MinFreeMemoryMB uint64 `yaml:"min_free_memory_mb" env:"WATERMARK_MIN_FREE_MEMORY_MB" env-default:"256"`
}

type WatchSection struct {
	SettleSeconds int `yaml:"settle_seconds" env:"WATERMARK_WATCH_SETTLE" env-default:"3" validate:"min=1"`
}

type LogSection struct {
	Level string `yaml:"level" env:"WATERMARK_LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error off"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		_, err := types.ParseColor(fl.Field().String())
		return err == nil
	})
	return v
}

// Load reads the config file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	// Seeded before reading so only an absent key gets the default.
	cfg := Config{Watermark: WatermarkSection{Text: DefaultText}}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. The watermark text is deliberately left
// alone: an empty text is reported by the renderer.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// WatermarkConfig converts the watermark section into the render snapshot.
func (c *Config) WatermarkConfig() types.WatermarkConfig {
	return types.WatermarkConfig{
		Text:       c.Watermark.Text,
		FontFamily: c.Watermark.Font,
		FontSizePt: c.Watermark.FontSize,
		Color:      types.ParseColorOr(c.Watermark.Color, types.White),
	}
}

// NormalizedPosition returns the configured watermark centre.
func (c *Config) NormalizedPosition() types.NormalizedPosition {
	return types.NormalizedPosition{X: c.Position.X, Y: c.Position.Y}.Clamp()
}

// ApplyOptions builds the options for a batch over inputs.
func (c *Config) ApplyOptions(inputs []string) *ApplyOptions {
	return &ApplyOptions{
		InputPaths:      inputs,
		OutputDir:       c.OutputDir,
		Watermark:       c.WatermarkConfig(),
		Position:        c.NormalizedPosition(),
		FontDirs:        c.Fonts.Dirs,
		FcMatch:         c.Fonts.FcMatch,
		MinFreeMemoryMB: c.Resources.MinFreeMemoryMB,
	}
}
