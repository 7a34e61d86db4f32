package media

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandBuilder renders ffmpeg/ffprobe argument vectors.
type CommandBuilder struct{}

func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{}
}

func baseArgs() []string {
	return []string{"-nostdin", "-nostats", "-hide_banner", "-loglevel", "warning", "-y"}
}

// Normalize converts src to 44.1 kHz PCM WAV with the given channel count.
func (b *CommandBuilder) Normalize(src, dst string, channels int) []string {
	return append(baseArgs(),
		"-i", src,
		"-vn",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(channels),
		"-c:a", "pcm_s16le",
		dst,
	)
}

// Probe asks ffprobe for the container duration in seconds.
func (b *CommandBuilder) Probe(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Fade applies the fade envelope to a normalized clip.
func (b *CommandBuilder) Fade(src, dst string, duration, fade float64) []string {
	return append(baseArgs(),
		"-i", src,
		"-af", FadeFilter(duration, fade),
		"-c:a", "pcm_s16le",
		dst,
	)
}

// Silence synthesizes seconds of silence matching normalized clips.
func (b *CommandBuilder) Silence(dst string, seconds float64, channels int) []string {
	return append(baseArgs(),
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", SampleRate, channelLayout(channels)),
		"-t", fmt.Sprintf("%.3f", seconds),
		"-c:a", "pcm_s16le",
		dst,
	)
}

// ConcatCopy joins the segments listed in manifest with the concat demuxer.
func (b *CommandBuilder) ConcatCopy(manifest, dst string, enc Encoding) []string {
	args := append(baseArgs(),
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-vn",
	)
	args = append(args, enc.Args()...)
	return append(args, dst)
}

// ConcatFilter joins inputs with the concat filter, optionally followed by a compressor.
func (b *CommandBuilder) ConcatFilter(inputs []string, dst string, enc Encoding, compressor *CompressorPreset) []string {
	args := baseArgs()
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", ConcatGraph(len(inputs), compressor),
		"-map", "[out]",
	)
	args = append(args, enc.Args()...)
	return append(args, dst)
}

// ConcatGraph builds the filter graph for n labelled audio inputs.
func ConcatGraph(n int, compressor *CompressorPreset) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:a]", i)
	}
	if compressor == nil {
		fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]", n)
		return b.String()
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[cat];[cat]%s[out]", n, compressor.Filter())
	return b.String()
}
