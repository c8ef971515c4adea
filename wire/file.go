package wire

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/ardnew/runmd/pkg"
)

// zstdMagic is the zstd frame header. Raw frame sequences begin with a
// frame op byte, so persisted files can be sniffed without a flag.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Marshal flattens a frame sequence into contiguous bytes.
func Marshal(frames []Frame) []byte {
	out := make([]byte, 0, len(frames)*FrameSize)

	for i := range frames {
		out = append(out, frames[i][:]...)
	}

	return out
}

// Unmarshal splits contiguous bytes back into frames. The data must be a
// whole number of frames.
func Unmarshal(data []byte) ([]Frame, error) {
	if len(data)%FrameSize != 0 {
		return nil, ErrCodec.Wrap(
			ErrFrameAligned.With(slog.Int("bytes", len(data))),
		)
	}

	frames := make([]Frame, len(data)/FrameSize)

	for i := range frames {
		copy(frames[i][:], data[i*FrameSize:])
	}

	return frames, nil
}

// WriteFile persists a frame sequence, optionally zstd-compressed.
func WriteFile(path string, frames []Frame, compress bool) error {
	data := Marshal(frames)

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return pkg.WrapError(err)
		}

		data = enc.EncodeAll(data, make([]byte, 0, len(data)))

		if err := enc.Close(); err != nil {
			return pkg.WrapError(err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pkg.WrapError(err)
	}

	return nil
}

// ReadFile loads a persisted frame sequence, decompressing when the file
// carries the zstd magic.
func ReadFile(path string) ([]Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkg.WrapError(err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, pkg.WrapError(err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, ErrCodec.Wrap(err)
		}
	}

	return Unmarshal(data)
}
