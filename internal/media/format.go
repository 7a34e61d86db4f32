package media

import (
	"path"
	"sort"
	"strconv"
	"strings"
)

// DefaultFormat is used when neither the request nor the first input names a supported format.
const DefaultFormat = "mp3"

// DefaultBitrate applies to lossy codecs when nothing else is configured.
const DefaultBitrate = "192k"

// SampleRate is the common rate every processed segment is normalized to.
const SampleRate = 44100

type codecInfo struct {
	codec    string
	lossless bool
}

var codecs = map[string]codecInfo{
	"mp3":  {codec: "libmp3lame"},
	"wav":  {codec: "pcm_s16le", lossless: true},
	"m4a":  {codec: "aac"},
	"ogg":  {codec: "libvorbis"},
	"flac": {codec: "flac", lossless: true},
}

// SupportedFormat reports whether f is in the output whitelist.
func SupportedFormat(f string) bool {
	_, ok := codecs[strings.ToLower(f)]
	return ok
}

// Formats lists the whitelist in stable order.
func Formats() []string {
	out := make([]string, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FormatFromPath returns the whitelisted format implied by the extension of p
// (a file path or URL path), or "" when the extension is missing or unsupported.
func FormatFromPath(p string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if _, ok := codecs[ext]; ok {
		return ext
	}
	return ""
}

// ResolveFormat picks the output format: explicit override, else the format of
// the first input, else DefaultFormat.
func ResolveFormat(explicit, firstInput string) string {
	if f := strings.ToLower(explicit); SupportedFormat(f) {
		return f
	}
	if f := FormatFromPath(firstInput); f != "" {
		return f
	}
	return DefaultFormat
}

// Encoding describes how the assembled output is written.
type Encoding struct {
	Format   string
	Bitrate  string
	Channels int
	// Resample forces SampleRate on the output.
	Resample bool
	// Copy requests a stream copy; the other fields are ignored.
	Copy bool
}

// Args renders the output codec flags.
func (e Encoding) Args() []string {
	if e.Copy {
		return []string{"-c", "copy"}
	}

	info, ok := codecs[e.Format]
	if !ok {
		info = codecs[DefaultFormat]
	}

	args := []string{"-c:a", info.codec}
	if !info.lossless {
		bitrate := e.Bitrate
		if bitrate == "" {
			bitrate = DefaultBitrate
		}
		args = append(args, "-b:a", bitrate)
	}
	if e.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(e.Channels))
	}
	if e.Resample {
		args = append(args, "-ar", strconv.Itoa(SampleRate))
	}
	return args
}
