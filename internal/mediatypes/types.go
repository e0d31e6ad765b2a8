package mediatypes

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// MP4MimeType is the content type of converted artifacts.
const MP4MimeType = "video/mp4"

// SignatureLen is the number of leading bytes HasMP4Signature inspects.
const SignatureLen = 8

// VideoExtensions maps file extensions to whether they are recognised video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
	".ogv":  true,
	".mts":  true,
	".m2ts": true,
}

// MimeTypes maps video file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4":  MP4MimeType,
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
	".ogv":  "video/ogg",
	".mts":  "video/mp2t",
	".m2ts": "video/mp2t",
}

// IsVideoExtension reports whether ext is a recognised video extension.
func IsVideoExtension(ext string) bool {
	return VideoExtensions[ext]
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// HasMP4Signature reports whether header starts with an ISO base media
// "ftyp" box.
func HasMP4Signature(header []byte) bool {
	return len(header) >= SignatureLen && bytes.Equal(header[4:8], []byte("ftyp"))
}

// FileHasMP4Signature reads the first bytes of path and checks them with
// HasMP4Signature.
func FileHasMP4Signature(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, SignatureLen)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return HasMP4Signature(header), nil
}
