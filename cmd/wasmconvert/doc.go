// Command wasmconvert is the in-browser converter. Built with
// GOOS=js GOARCH=wasm and served from STATIC_DIR, it drives FFmpeg.wasm
// (@ffmpeg/ffmpeg 0.11, expected as the global FFmpeg) with the same
// arguments the server passes to ffmpeg, so no upload ever leaves the page.
//
// It exports two functions on the global object:
//
//	convertVideo(file, bitrate, onProgress) -> Promise<string>
//	    file is a File or Blob, bitrate the audio kbps (string or number;
//	    anything unusable falls back to 30), onProgress an optional
//	    callback receiving whole percentages. The promise resolves to an
//	    object URL of the MP4 and rejects with a single user-facing message.
//
//	downloadName(name) -> string
//	    The name to offer for the converted file ("clip.mov" -> "clip.mp4").
//
// The FFmpeg core is loaded once per page, and one conversion runs at a
// time; a second call while one is in progress is rejected. Input and
// output are removed from FFmpeg's in-memory filesystem on every path.
package main
