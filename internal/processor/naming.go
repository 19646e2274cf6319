package processor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/pkg/types"
)

// OutputName returns "<stem>_watermarked" plus the extension of the fixed
// output container for a source path.
func OutputName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := ffmpeg.GetCodecSettings(config.OutputFormat).FileExtension
	return ffmpeg.EnsureExtension(stem+config.OutputSuffix, ext)
}

var reOutputStem = regexp.MustCompile(regexp.QuoteMeta(config.OutputSuffix) + `(_\d+)?$`)

// IsOutputName reports whether path is named like a file BuildJobs produces,
// including the "_2", "_3", ... collision variants.
func IsOutputName(path string) bool {
	base := filepath.Base(path)
	return reOutputStem.MatchString(strings.TrimSuffix(base, filepath.Ext(base)))
}

// BuildJobs derives one job per input path, in order. Two inputs that would
// write the same output file get "_2", "_3", ... appended to the later
// names. Names are compared case-insensitively.
func BuildJobs(inputs []string, outputDir string) []types.VideoJob {
	claimed := make(map[string]bool, len(inputs))
	jobs := make([]types.VideoJob, 0, len(inputs))

	for _, in := range inputs {
		name := OutputName(in)
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		candidate := name
		for n := 2; claimed[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		claimed[strings.ToLower(candidate)] = true

		jobs = append(jobs, types.VideoJob{
			SourcePath: in,
			OutputPath: filepath.Join(outputDir, candidate),
		})
	}
	return jobs
}
