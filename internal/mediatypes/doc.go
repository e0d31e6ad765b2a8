// Package mediatypes provides dependency-free knowledge about video files:
// which upload extensions are recognised, their MIME types, and how to tell
// an ISO base media (MP4) container from its first bytes.
//
// It has no imports beyond the standard library so that both the server and
// the WebAssembly build can use it.
//
// # Extension Detection
//
//	mediatypes.IsVideoExtension(".mov") // true
//	mediatypes.GetMimeType(".mkv")      // "video/x-matroska"
//
// Extensions must be lowercase and include the leading dot.
//
// # Container Signature
//
// HasMP4Signature checks for an "ftyp" box at offset 4, which every MP4 the
// encoder produces begins with.
package mediatypes
