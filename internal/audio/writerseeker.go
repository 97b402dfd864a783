package audio

import (
	"errors"
	"io"
)

// writerSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks back
// to patch chunk sizes on Close, which rules out a plain bytes.Buffer.
type writerSeeker struct {
	buf []byte
	pos int
}

func (w *writerSeeker) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		if need > cap(w.buf) {
			grown := make([]byte, need, need*2)
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:need]
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writerSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = w.pos + int(offset)
	case io.SeekEnd:
		next = len(w.buf) + int(offset)
	default:
		return 0, errors.New("invalid whence")
	}
	if next < 0 {
		return 0, errors.New("negative seek position")
	}
	w.pos = next
	return int64(next), nil
}

// Bytes returns the written data.
func (w *writerSeeker) Bytes() []byte {
	return w.buf
}
