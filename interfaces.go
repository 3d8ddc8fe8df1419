package filespacer

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// Codec is a streaming compression format. Implementations wrap an
// underlying writer/reader with the format's compressor/decompressor
// and are identified by file extension and/or stream header.
type Codec interface {
	// Name returns the canonical file extension of the format,
	// with the leading dot (e.g. ".zst").
	Name() string

	// Match returns true if the given name/stream is recognized. One of the
	// arguments is optional: the filename can be empty if you are working with
	// an unnamed stream, or the stream can be empty if you are working with
	// just the filename. The filename should consist only of the filename,
	// not the path component. Match reads only as many bytes as necessary
	// to determine the match.
	Match(filename string, stream io.Reader) (MatchResult, error)

	// OpenWriter wraps w with the format's compressor. level is the
	// engine-wide compression level in [1,22]; formats with a narrower
	// native scale map it proportionally. concurrency is the size of the
	// worker pool the codec may use internally; formats without parallel
	// encoders ignore it.
	OpenWriter(w io.Writer, level, concurrency int) (io.WriteCloser, error)

	// OpenReader wraps r with the format's decompressor.
	OpenReader(r io.Reader) (io.ReadCloser, error)
}

// MatchResult returns true if the codec was found either by name,
// by stream, or by both parameters. The name usually refers to matching
// by file extension, and the stream refers to reading the first few bytes
// of the stream (its header). Matching by stream is more reliable, because
// filenames do not always indicate the contents of files, if they exist at all.
type MatchResult struct {
	ByName,
	ByStream bool
}

// Registered codecs, in registration order. Order is the tiebreaker when
// identifying by extension only.
var codecs []Codec

// Matched returns true if a match was made by either name or stream.
func (mr MatchResult) Matched() bool {
	return mr.ByName || mr.ByStream
}

// RegisterCodec registers the codec.
// It must be called during init.
// Duplicate codecs by name are not allowed and will cause a panic.
func RegisterCodec(c Codec) {
	name := strings.ToLower(c.Name())
	for _, existing := range codecs {
		if strings.ToLower(existing.Name()) == name {
			panic("codec " + name + " is already registered")
		}
	}

	codecs = append(codecs, c)
}

// identifyCodec goes through the registered codecs and returns the one
// matching the given file name and/or header block. Stream matches win
// over extension matches.
func identifyCodec(filename string, header []byte) (Codec, error) {
	var byName Codec

	for _, c := range codecs {
		mr, err := c.Match(filename, bytes.NewReader(header))
		if err != nil {
			return nil, err
		}

		if mr.ByStream {
			return c, nil
		}

		if mr.ByName && byName == nil {
			byName = c
		}
	}

	if byName != nil {
		return byName, nil
	}

	return nil, ErrUnknownFormat
}

// readAtMost reads at most n bytes from the stream.
// A nil, empty or short stream is not an error.
// The returned slice of bytes may have length < n without error.
func readAtMost(stream io.Reader, n int) ([]byte, error) {
	if stream == nil || n <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	nr, err := io.ReadFull(stream, buf)

	// If the error is EOF (the stream was empty) or UnexpectedEOF (the stream
	// had less than n), ignore it: a short header block simply fails to match.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}

	if err != nil {
		return nil, err
	}

	return buf[:nr], nil
}
