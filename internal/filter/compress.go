package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Deflate inflates zlib streams. The level in the client data only
// matters when writing.
type Deflate struct{}

func (Deflate) ID() uint16 { return message.FilterDeflate }

func (Deflate) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return out, nil
}

// DecodeAll on a shared decoder is safe for concurrent use.
var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// Zstd decodes frames of the registered Zstandard filter.
type Zstd struct{}

func (Zstd) ID() uint16 { return message.FilterZstd }

func (Zstd) Decode(input []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}
