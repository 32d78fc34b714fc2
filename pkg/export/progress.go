package export

import (
	"io"
	"sync/atomic"
)

type progressWriter struct {
	w            io.Writer
	bytesCounter *atomic.Int64
}

func newWriterWithBytesCounter(w io.Writer, bytesCounter *atomic.Int64) *progressWriter {
	return &progressWriter{
		w:            w,
		bytesCounter: bytesCounter,
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.bytesCounter.Add(int64(n))
	return n, err
}
