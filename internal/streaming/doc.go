/*
Package streaming delivers converted artifacts to HTTP clients.

ServeArtifact sets the MP4 attachment headers and copies the file through a
TimeoutWriter:

	n, err := streaming.ServeArtifact(r.Context(), w, outcome.OutputPath,
		encoder.DownloadName(upload.OriginalName), streaming.DefaultConfig())
	if errors.Is(err, streaming.ErrArtifactUnavailable) {
		http.Error(w, "Conversion output could not be read", http.StatusInternalServerError)
	}

# Timeouts

TimeoutWriter bounds each write with Config.WriteTimeout and the gap between
writes with Config.IdleTimeout. A client that stops reading gets its stream
abandoned with ErrWriteTimeout; a client that disconnects ends the request
context and yields ErrClientGone. Both are counted in
video_converter_stream_errors_total and never turned into a second response,
since the status line has already been sent.

Content-Length is always known for an artifact on disk, so responses are not
chunk-encoded.
*/
package streaming
