package transcoder

import "github.com/armon/circbuf"

// DefaultDiagnosticLimit bounds how much encoder output is kept per stream.
const DefaultDiagnosticLimit = 64 * 1024

// tailBuffer keeps the last limit bytes written to it. Encoder output can
// run to megabytes on long inputs; the end is where the error is.
type tailBuffer struct {
	buf *circbuf.Buffer
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = DefaultDiagnosticLimit
	}
	// NewBuffer only fails for a non-positive size.
	buf, _ := circbuf.NewBuffer(int64(limit))
	return &tailBuffer{buf: buf}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	return t.buf.Write(p)
}

// String returns the kept bytes, marked when earlier output was dropped.
func (t *tailBuffer) String() string {
	if t.buf.TotalWritten() > t.buf.Size() {
		return "[...]\n" + t.buf.String()
	}
	return t.buf.String()
}
