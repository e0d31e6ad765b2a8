package main

import (
	"video-converter/internal/encoder"
)

// corePath is the FFmpeg.wasm core loaded by createFFmpeg.
const corePath = "https://unpkg.com/@ffmpeg/core@0.11.0/dist/ffmpeg-core.js"

// Messages shown to the user. Every failure surfaces as exactly one of them.
const (
	msgNoFile      = "Please select a file first"
	msgUnavailable = "FFmpeg.wasm is not loaded. Please check your internet connection and try again."
	msgProcessing  = "Video processing failed. Please try a different file or check your browser compatibility."
	msgBusy        = "A conversion is already running on this page."
)

// userError carries one of the messages above plus the underlying cause,
// which is only logged to the console.
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }

func (e *userError) Unwrap() error { return e.cause }

func failWith(msg string, cause error) error {
	return &userError{msg: msg, cause: cause}
}

// plan is everything decided about a conversion before FFmpeg runs.
type plan struct {
	InputName    string
	OutputName   string
	Args         []string
	DownloadName string
	BitrateKbps  int
}

// newPlan derives the virtual file names, the argument list and the name
// offered for download. The arguments are the server's ffmpeg arguments.
func newPlan(fileName, bitrateRaw string) plan {
	in, out := encoder.VirtualNames(fileName)
	kbps := encoder.ResolveBitrate(bitrateRaw, encoder.DefaultBitrateKbps)
	return plan{
		InputName:    in,
		OutputName:   out,
		Args:         encoder.DefaultSettings().Args(in, out, kbps),
		DownloadName: encoder.DownloadName(fileName),
		BitrateKbps:  kbps,
	}
}

// progressReporter adapts FFmpeg's fractional ratio to whole percentages,
// dropping unreportable ratios and repeats of the last value.
func progressReporter(report func(percent int)) func(ratio float64) {
	last := -1
	return func(ratio float64) {
		pct, ok := encoder.ProgressPercent(ratio)
		if !ok || pct == last {
			return
		}
		last = pct
		report(pct)
	}
}
