package pipeline

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/houzhh15/audiomerge/internal/config"
	"github.com/houzhh15/audiomerge/internal/media"
)

// fallbackSilenceMs applies when silence is requested but no duration is configured anywhere.
const fallbackSilenceMs = 500

// Request is the merge request body.
type Request struct {
	Files             []string `json:"files" binding:"required"`
	OutputName        string   `json:"outputName" binding:"required"`
	OutputFormat      string   `json:"outputFormat,omitempty"`
	Bitrate           string   `json:"bitrate,omitempty"`
	Silence           *bool    `json:"silence,omitempty"`
	SilenceMs         *int     `json:"silenceMs,omitempty"`
	FadeMs            *int     `json:"fadeMs,omitempty"`
	ApplyCompression  *bool    `json:"applyCompression,omitempty"`
	Preset            string   `json:"preset,omitempty"`
	OutputChannels    int      `json:"outputChannels,omitempty"`
	ProcessingEnabled *bool    `json:"processingEnabled,omitempty"`
}

// Validate checks the request against static rules. maxFiles <= 0 disables the count limit.
func (r *Request) Validate(maxFiles int) error {
	if len(r.Files) == 0 {
		return NewValidationError("files must contain at least one URL")
	}
	if maxFiles > 0 && len(r.Files) > maxFiles {
		return NewValidationError("too many files: %d (max %d)", len(r.Files), maxFiles)
	}
	for i, raw := range r.Files {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return NewValidationError("files[%d] is not an absolute http(s) URL: %q", i, raw)
		}
	}

	if Identifier(r.OutputName) == "" {
		return NewValidationError("outputName is required")
	}
	if r.OutputFormat != "" && !media.SupportedFormat(r.OutputFormat) {
		return NewValidationError("unsupported outputFormat %q (supported: %s)", r.OutputFormat, strings.Join(media.Formats(), ", "))
	}
	if r.Bitrate != "" && !config.ValidBitrate(r.Bitrate) {
		return NewValidationError("bitrate must look like 192k, got %q", r.Bitrate)
	}
	if r.OutputChannels != 0 && r.OutputChannels != 1 && r.OutputChannels != 2 {
		return NewValidationError("outputChannels must be 1 or 2, got %d", r.OutputChannels)
	}
	if r.SilenceMs != nil && (*r.SilenceMs < 0 || *r.SilenceMs > config.MaxEnvelopeMs) {
		return NewValidationError("silenceMs must be between 0 and %d", config.MaxEnvelopeMs)
	}
	if r.FadeMs != nil && (*r.FadeMs < 0 || *r.FadeMs > config.MaxEnvelopeMs) {
		return NewValidationError("fadeMs must be between 0 and %d", config.MaxEnvelopeMs)
	}
	return nil
}

// Options is a request resolved against the configured defaults.
type Options struct {
	Identifier string
	Format     string
	Bitrate    string
	Channels   int
	Processing bool
	SilenceMs  int
	FadeMs     int
	Compressor *media.CompressorPreset
	// CopyStreams is set when the no-processing path can stream copy: every
	// input already has the output format and bitrate/channels were not overridden.
	CopyStreams bool
}

// Resolve applies settings defaults to every field the request left unset.
func (r *Request) Resolve(s config.Settings) Options {
	opts := Options{
		Identifier: Identifier(r.OutputName),
		Format:     media.ResolveFormat(firstNonEmpty(r.OutputFormat, s.OutputFormat), firstPath(r.Files)),
		Bitrate:    firstNonEmpty(r.Bitrate, s.Bitrate, media.DefaultBitrate),
		Channels:   r.OutputChannels,
		Processing: s.ProcessingEnabled,
		SilenceMs:  s.SilenceMs,
		FadeMs:     s.FadeMs,
	}
	if opts.Channels == 0 {
		opts.Channels = s.OutputChannels
	}
	if opts.Channels == 0 {
		opts.Channels = 2
	}
	if r.ProcessingEnabled != nil {
		opts.Processing = *r.ProcessingEnabled
	}

	// silence=false 优先于 silenceMs
	switch {
	case r.Silence != nil && !*r.Silence:
		opts.SilenceMs = 0
	case r.SilenceMs != nil:
		opts.SilenceMs = *r.SilenceMs
	case r.Silence != nil && *r.Silence && opts.SilenceMs == 0:
		opts.SilenceMs = fallbackSilenceMs
	}
	if r.FadeMs != nil {
		opts.FadeMs = *r.FadeMs
	}

	compress := s.ApplyCompression
	if r.ApplyCompression != nil {
		compress = *r.ApplyCompression
	} else if r.Preset != "" {
		compress = true
	}
	if compress {
		preset, _ := media.LookupPreset(firstNonEmpty(r.Preset, s.CompressionPreset))
		opts.Compressor = &preset
	}

	opts.CopyStreams = r.Bitrate == "" && r.OutputChannels == 0
	for _, f := range r.Files {
		if media.FormatFromPath(urlPath(f)) != opts.Format {
			opts.CopyStreams = false
			break
		}
	}
	return opts
}

var (
	unsafeIdentifierChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	dotRuns               = regexp.MustCompile(`\.{2,}`)
)

// Identifier derives the published public id from an output name: the final
// extension is stripped, characters outside [A-Za-z0-9_.-] become "_" and
// runs of dots collapse to one, so the id never forms a ".." path element.
func Identifier(outputName string) string {
	name := strings.TrimSpace(outputName)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = unsafeIdentifierChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.TrimLeft(name, ".-")
	return strings.TrimRight(name, ".")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPath(files []string) string {
	if len(files) == 0 {
		return ""
	}
	return urlPath(files[0])
}

// urlPath returns the path component of a URL so query strings do not hide the extension.
func urlPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return u.Path
}
