package filespacer

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Zstd facilitates Zstandard compression. It is the engine's default
// codec and the only one whose native scale covers the full [1,22]
// level range directly.
type Zstd struct {
	EncoderOptions []zstd.EOption
	DecoderOptions []zstd.DOption
}

// errorCloser adapts zstd.Decoder's errorless Close to io.ReadCloser.
type errorCloser struct {
	*zstd.Decoder
}

// magic number at the beginning of Zstandard files
var zstdHeader = []byte{0x28, 0xb5, 0x2f, 0xfd}

func init() {
	RegisterCodec(Zstd{})
}

func (Zstd) Name() string {
	return ".zst"
}

func (zs Zstd) Match(filename string, stream io.Reader) (MatchResult, error) {
	var mr MatchResult

	// match filename
	if strings.Contains(strings.ToLower(filename), zs.Name()) {
		mr.ByName = true
	}

	// match file header
	buf, err := readAtMost(stream, len(zstdHeader))
	if err != nil {
		return mr, err
	}

	mr.ByStream = bytes.Equal(buf, zstdHeader)

	return mr, nil
}

func (zs Zstd) OpenWriter(w io.Writer, level, concurrency int) (io.WriteCloser, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	opts := append([]zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(concurrency),
	}, zs.EncoderOptions...)

	return zstd.NewWriter(w, opts...)
}

func (zs Zstd) OpenReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zs.DecoderOptions...)
	if err != nil {
		return nil, err
	}

	return errorCloser{zr}, nil
}

func (ec errorCloser) Close() error {
	ec.Decoder.Close()
	return nil
}
