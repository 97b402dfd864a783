// Package audio decodes WAV recordings and extracts padded answer clips.
// Range reasoning is done in seconds against the buffer's own sample rate,
// so the extractor stays format-agnostic.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Buffer is a decoded PCM audio buffer with a known duration.
type Buffer struct {
	pcm      *gaudio.IntBuffer
	bitDepth int
}

// NewBuffer wraps an already-decoded PCM buffer. bitDepth 0 defaults to 16
// on encode.
func NewBuffer(pcm *gaudio.IntBuffer, bitDepth int) (*Buffer, error) {
	if pcm == nil || pcm.Format == nil || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("pcm buffer missing format")
	}
	return &Buffer{pcm: pcm, bitDepth: bitDepth}, nil
}

// Decode reads a complete WAV stream into memory.
func Decode(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav: missing format")
	}
	return &Buffer{pcm: pcm, bitDepth: int(dec.BitDepth)}, nil
}

// DecodeBytes decodes WAV data held in memory.
func DecodeBytes(data []byte) (*Buffer, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile decodes the WAV file at path.
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.frames()) / float64(b.pcm.Format.SampleRate)
}

func (b *Buffer) channels() int {
	if b.pcm.Format.NumChannels > 0 {
		return b.pcm.Format.NumChannels
	}
	return 1
}

func (b *Buffer) frames() int {
	return len(b.pcm.Data) / b.channels()
}

// slice copies the frames in [startSec, endSec) into a new PCM buffer,
// clamping both bounds to the buffer.
func (b *Buffer) slice(startSec, endSec float64) *gaudio.IntBuffer {
	rate := b.pcm.Format.SampleRate
	ch := b.channels()
	startFrame := int(startSec * float64(rate))
	endFrame := int(endSec * float64(rate))
	if startFrame < 0 {
		startFrame = 0
	}
	if startFrame > b.frames() {
		startFrame = b.frames()
	}
	if endFrame > b.frames() {
		endFrame = b.frames()
	}
	if endFrame < startFrame {
		endFrame = startFrame
	}
	data := make([]int, (endFrame-startFrame)*ch)
	copy(data, b.pcm.Data[startFrame*ch:endFrame*ch])
	return &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: ch, SampleRate: rate},
		Data:           data,
		SourceBitDepth: b.pcm.SourceBitDepth,
	}
}

// encode serializes a PCM buffer back into a WAV container.
func (b *Buffer) encode(pcm *gaudio.IntBuffer) ([]byte, error) {
	bitDepth := b.bitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	var ws writerSeeker
	enc := wav.NewEncoder(&ws, pcm.Format.SampleRate, bitDepth, pcm.Format.NumChannels, 1)
	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return ws.Bytes(), nil
}
