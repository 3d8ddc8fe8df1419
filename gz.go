package filespacer

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/pgzip"
)

// Gz facilitates gzip compression through a parallel implementation,
// effective for chunks of about 1 MB or more.
type Gz struct{}

// magic number at the beginning of gzip files
var gzHeader = []byte{0x1f, 0x8b}

func init() {
	RegisterCodec(Gz{})
}

func (Gz) Name() string {
	return ".gz"
}

func (gz Gz) Match(filename string, stream io.Reader) (MatchResult, error) {
	var mr MatchResult

	// match filename
	if strings.Contains(strings.ToLower(filename), gz.Name()) {
		mr.ByName = true
	}

	// match file header
	buf, err := readAtMost(stream, len(gzHeader))
	if err != nil {
		return mr, err
	}

	mr.ByStream = bytes.Equal(buf, gzHeader)

	return mr, nil
}

func (Gz) OpenWriter(w io.Writer, level, concurrency int) (io.WriteCloser, error) {
	gw, err := pgzip.NewWriterLevel(w, scaleLevel(level, pgzip.BestSpeed, pgzip.BestCompression))
	if err != nil {
		return nil, err
	}

	if concurrency > 0 {
		// block size stays at the pgzip default; only the pool is bounded
		if err := gw.SetConcurrency(1<<20, concurrency); err != nil {
			gw.Close()
			return nil, err
		}
	}

	return gw, nil
}

func (Gz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return pgzip.NewReader(r)
}
