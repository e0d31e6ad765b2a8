package encoder

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBitrateKbps is the audio bitrate applied when the caller omits one
// or sends something that is not a positive integer.
const DefaultBitrateKbps = 30

const (
	// MediaType is the content type of every produced artifact.
	MediaType = "video/mp4"

	outputSuffix    = ".out.mp4"
	fallbackName    = "converted"
	downloadExt     = ".mp4"
	maxDownloadName = 200
)

// Mode selects how the external encoder is driven.
type Mode string

const (
	// ModeFFmpeg passes the full ffmpeg argument list to the executable.
	ModeFFmpeg Mode = "ffmpeg"
	// ModeScript passes only input path, output path and bitrate to a
	// wrapper script that owns the encoder flags.
	ModeScript Mode = "script"
)

// ParseMode maps a configuration value to a Mode. Unknown values yield
// ModeFFmpeg and ok=false.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFFmpeg, "":
		return ModeFFmpeg, true
	case ModeScript:
		return ModeScript, true
	default:
		return ModeFFmpeg, false
	}
}

// Settings are the encoder flags that do not vary per request.
type Settings struct {
	VideoCodec string
	Preset     string
	CRF        int
	AudioCodec string
}

// DefaultSettings returns H.264/AAC settings suitable for browser playback.
func DefaultSettings() Settings {
	return Settings{
		VideoCodec: "libx264",
		Preset:     "fast",
		CRF:        22,
		AudioCodec: "aac",
	}
}

// OutputPath derives the artifact path from a staged input path. The
// extension is replaced rather than appended to, and the ".out" infix keeps
// an ".mp4" upload from being overwritten by its own conversion.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + outputSuffix
}

// AudioBitrate formats a kbps value the way ffmpeg expects it.
func AudioBitrate(kbps int) string {
	return strconv.Itoa(kbps) + "k"
}

// Args builds the ffmpeg argument list (without the executable name).
// Each value is a discrete argument; nothing is ever passed through a shell.
func (s Settings) Args(input, output string, bitrateKbps int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", input,
		"-c:v", s.VideoCodec,
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
		"-c:a", s.AudioCodec,
		"-b:a", AudioBitrate(bitrateKbps),
		"-movflags", "+faststart",
		output,
	}
}

// Invocation returns the argument list for the given mode.
func (s Settings) Invocation(mode Mode, input, output string, bitrateKbps int) []string {
	if mode == ModeScript {
		return []string{input, output, strconv.Itoa(bitrateKbps)}
	}
	return s.Args(input, output, bitrateKbps)
}

// ResolveBitrate parses a client-supplied bitrate. Anything that is not a
// positive decimal integer resolves to def; no error is raised.
func ResolveBitrate(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// DownloadName turns the uploaded file name into the attachment name: the
// base name with its extension replaced by ".mp4". Characters that would
// break a quoted Content-Disposition value are dropped.
func DownloadName(original string) string {
	// Browsers may send Windows paths; only the last element matters.
	original = original[strings.LastIndexAny(original, `/\`)+1:]
	base := strings.TrimSuffix(original, filepath.Ext(original))

	var b strings.Builder
	for _, r := range base {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\\' {
			continue
		}
		b.WriteRune(r)
	}

	name := strings.TrimSpace(b.String())
	if name == "" || name == "." || name == ".." {
		name = fallbackName
	}
	if len(name) > maxDownloadName {
		name = strings.ToValidUTF8(name[:maxDownloadName], "")
	}
	return name + downloadExt
}

// ProgressPercent maps a fractional completion ratio to a display
// percentage. Ratios outside (0, 1] are not reportable.
func ProgressPercent(ratio float64) (int, bool) {
	if !(ratio > 0) || ratio > 1 {
		return 0, false
	}
	return int(ratio*100 + 0.5), true
}

// VirtualNames returns the in-memory filesystem names used by the browser
// encoder for an upload. The input keeps its extension so the demuxer can
// be guessed from it; the output name comes from OutputPath.
func VirtualNames(original string) (input, output string) {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		ext = ".bin"
	}
	input = "input" + ext
	return input, OutputPath(input)
}
