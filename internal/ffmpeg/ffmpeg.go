package ffmpeg

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/exp/slices"
)

type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	DefaultCRF      int
	ContainerFormat string
	FileExtension   string
	EncoderPresets  map[string]ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"mp4": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		DefaultCRF:      23,
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		EncoderPresets: map[string]ffmpeg.KwArgs{
			"watermark": {
				"preset":   "ultrafast",
				"pix_fmt":  "yuv420p",
				"movflags": "+faststart",
			},
		},
	},
}

// GetCodecSettings returns the fixed output profile for a container.
// Unknown formats get the mp4 profile.
func GetCodecSettings(outputFormat string) CodecSettings {
	if settings, ok := codecPresets[outputFormat]; ok {
		return settings
	}
	return codecPresets["mp4"]
}

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
	HasAudio bool
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// EncodeRequest describes one watermark composite.
type EncodeRequest struct {
	SourcePath  string
	OverlayPath string
	OutputPath  string
	// X and Y are the overlay's top-left pixel in the source frame.
	X, Y     int
	Duration float64
	HasAudio bool
}

// Processor wraps FFmpeg functionality
type Processor struct {
	logger  hclog.Logger
	format  string
	threads int
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(logger hclog.Logger, outputFormat string) *Processor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Processor{
		logger:  logger,
		format:  outputFormat,
		threads: GetOptimalThreadCount(),
	}
}

// Probe reads the frame size, duration and audio presence of a video.
func (p *Processor) Probe(inputPath string) (*VideoMetadata, error) {
	out, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error probing %s", inputPath)
	}
	return ParseProbe(out)
}

// ParseProbe decodes ffprobe's JSON output.
func ParseProbe(data string) (*VideoMetadata, error) {
	var probe probeOutput
	if err := json.Unmarshal([]byte(data), &probe); err != nil {
		return nil, errors.Wrap(err, "invalid ffprobe output")
	}

	if len(probe.Streams) == 0 {
		return nil, errors.New("no streams found in video")
	}

	var video *probeStream
	hasAudio := false
	for i := range probe.Streams {
		s := &probe.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			hasAudio = true
		}
	}

	if video == nil {
		return nil, errors.New("no video stream found")
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", video.Width, video.Height)
	}

	// Stream duration first, then container duration, then frames / rate.
	duration := parseSeconds(video.Duration)
	if duration == 0 {
		duration = parseSeconds(probe.Format.Duration)
	}
	if duration == 0 {
		if frames, err := strconv.ParseFloat(video.NbFrames, 64); err == nil {
			if rate := parseRate(video.RFrameRate); rate > 0 {
				duration = frames / rate
			}
		}
	}

	if duration == 0 {
		return nil, errors.New("could not determine video duration")
	}

	return &VideoMetadata{
		Duration: duration,
		Width:    video.Width,
		Height:   video.Height,
		Codec:    video.CodecName,
		HasAudio: hasAudio,
	}, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

func parseRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// BuildEncode assembles the ffmpeg graph for req without running it.
func (p *Processor) BuildEncode(req EncodeRequest) *ffmpeg.Stream {
	codec := GetCodecSettings(p.format)

	source := ffmpeg.Input(req.SourcePath)
	overlay := ffmpeg.Input(req.OverlayPath, ffmpeg.KwArgs{
		"loop": 1,
		"t":    strconv.FormatFloat(req.Duration, 'f', 3, 64),
	})

	video := p.CreateOverlayFilter(source, overlay, strconv.Itoa(req.X), strconv.Itoa(req.Y))

	streams := []*ffmpeg.Stream{video}
	outputKwargs := ffmpeg.KwArgs{
		"f":       codec.ContainerFormat,
		"c:v":     codec.VideoCodec,
		"crf":     codec.DefaultCRF,
		"threads": p.threads,
	}
	if req.HasAudio {
		streams = append(streams, source.Audio())
		outputKwargs["c:a"] = codec.AudioCodec
	}
	for k, v := range codec.EncoderPresets["watermark"] {
		outputKwargs[k] = v
	}

	return ffmpeg.Output(streams, req.OutputPath, outputKwargs).OverWriteOutput()
}

// Encode composites the overlay onto the source and writes the output.
// It blocks until ffmpeg exits; there is no timeout.
func (p *Processor) Encode(req EncodeRequest) error {
	stream := p.BuildEncode(req)

	p.logger.Debug("running ffmpeg", "args", strings.Join(stream.GetArgs(), " "))

	var stderr bytes.Buffer
	err := stream.WithErrorOutput(&stderr).Run()
	if err != nil {
		return &ExecError{Err: err, Stderr: stderr.String()}
	}
	return nil
}

// CreateOverlayFilter creates a filter for overlaying one video on top of another
func (p *Processor) CreateOverlayFilter(main, overlay *ffmpeg.Stream, x, y string) *ffmpeg.Stream {
	return ffmpeg.Filter([]*ffmpeg.Stream{main, overlay}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
		"x": x,
		"y": y,
	})
}

// GetOptimalThreadCount uses 75% of the logical CPUs, at least one.
func GetOptimalThreadCount() int {
	cpuCount, err := cpu.Counts(true)
	if err != nil || cpuCount <= 0 {
		cpuCount = runtime.NumCPU()
	}
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// videoExtensions are the container extensions EnsureExtension replaces.
var videoExtensions = []string{".mp4", ".webm", ".mkv", ".avi", ".mov", ".m4v"}

// EnsureExtension gives filename the extension of the output container,
// replacing a video extension it already carries.
func EnsureExtension(filename, extension string) string {
	ext := filepath.Ext(filename)
	if slices.Contains(videoExtensions, strings.ToLower(ext)) {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}
