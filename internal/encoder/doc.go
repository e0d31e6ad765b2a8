// Package encoder holds everything both conversion paths must agree on:
// the encoder argument list, where the encoder writes its output, the
// download name handed back to the user, the bitrate policy and the
// progress mapping.
//
// The server invoker and the browser WebAssembly adapter both build their
// command lines here, so the path the encoder writes to and the path the
// caller later checks can never drift apart.
package encoder
