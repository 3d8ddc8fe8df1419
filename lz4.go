package filespacer

import (
	"bytes"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// Lz4 facilitates LZ4 compression.
type Lz4 struct{}

var lz4Header = []byte{0x04, 0x22, 0x4d, 0x18}

// lz4Levels maps the proportional [0,9] slot to the lz4 level constants;
// slot 0 is the fast path without entropy search.
var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func init() {
	RegisterCodec(Lz4{})
}

func (Lz4) Name() string {
	return ".lz4"
}

func (lz Lz4) Match(filename string, stream io.Reader) (MatchResult, error) {
	var mr MatchResult

	// match filename
	if strings.Contains(strings.ToLower(filename), lz.Name()) {
		mr.ByName = true
	}

	// match file header
	buf, err := readAtMost(stream, len(lz4Header))
	if err != nil {
		return mr, err
	}

	mr.ByStream = bytes.Equal(buf, lz4Header)

	return mr, nil
}

func (Lz4) OpenWriter(w io.Writer, level, concurrency int) (io.WriteCloser, error) {
	lw := lz4.NewWriter(w)
	if err := lw.Apply(lz4.CompressionLevelOption(lz4Levels[scaleLevel(level, 0, len(lz4Levels)-1)])); err != nil {
		return nil, err
	}

	return lw, nil
}

func (Lz4) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
