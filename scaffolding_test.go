package rollout

import (
	"io"
	"syscall"
)

// chunkReader returns each of its chunks from a separate Read call, then
// io.EOF, so tests control exactly what every read observes.
type chunkReader struct {
	chunks []string
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	if len(cr.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, cr.chunks[0])
	if n < len(cr.chunks[0]) {
		cr.chunks[0] = cr.chunks[0][n:]
	} else {
		cr.chunks = cr.chunks[1:]
	}
	return n, nil
}

// interruptingReader fails with EINTR and EAGAIN before every
// successful read of the wrapped reader.
type interruptingReader struct {
	r      io.Reader
	failed int
}

func (ir *interruptingReader) Read(p []byte) (int, error) {
	switch ir.failed % 3 {
	case 0:
		ir.failed++
		return 0, syscall.EINTR
	case 1:
		ir.failed++
		return 0, syscall.EAGAIN
	}
	ir.failed++
	return ir.r.Read(p)
}

// stutteringWriter writes at most one byte per call, and reports EINTR
// on every other call.
type stutteringWriter struct {
	buf   []byte
	calls int
}

func (sw *stutteringWriter) Write(p []byte) (int, error) {
	sw.calls++
	if sw.calls%2 == 0 {
		return 0, syscall.EINTR
	}
	if len(p) == 0 {
		return 0, nil
	}
	sw.buf = append(sw.buf, p[0])
	return 1, nil
}
