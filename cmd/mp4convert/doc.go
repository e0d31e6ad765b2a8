// Command mp4convert converts a local video file to MP4 with the same
// encoder contract the server uses, without going through HTTP.
//
// Usage:
//
//	mp4convert <command> [flags]
//
// Commands:
//
//	convert [-b KBPS] [-o OUTPUT] [--timeout DURATION] INPUT
//	        Stage INPUT (or stdin when INPUT is -) in a private work
//	        directory, run the encoder on it and move the result to
//	        OUTPUT. Without -o the result is written next to INPUT with
//	        an .mp4 extension, or to stdout when reading stdin. Writing
//	        to a terminal is refused.
//
//	check   Resolve the encoder and, in ffmpeg mode, print its version.
//
//	version Print build information.
//
// On failure the encoder's diagnostic output is printed to stderr and the
// exit status is 1; usage errors exit with 2.
//
// Environment:
//
//	ENCODER_PATH, ENCODER_MODE, ENCODER_PRESET, ENCODER_CRF, ENCODE_TIMEOUT
//	and DEFAULT_BITRATE_KBPS, read exactly as the server reads them.
//	LOG_LEVEL defaults to warn.
package main
