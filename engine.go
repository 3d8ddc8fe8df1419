package filespacer

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"
)

const (
	// DefaultChunkSize bounds every read in the streaming loops, keeping
	// memory use independent of input size.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// DefaultLevel is the default compression level.
	DefaultLevel = 3

	// MinLevel and MaxLevel bound the compression level parameter.
	MinLevel = 1
	MaxLevel = 22
)

// Engine performs streaming compression, decompression and archive
// extraction. The zero value is ready to use; fields override defaults.
// An Engine holds no per-operation state and may be shared by concurrent
// operations as long as each has its own source and destination.
type Engine struct {
	// Codec is the compression format used for new outputs.
	// Defaults to Zstd. Decompression ignores it and auto-detects.
	Codec Codec

	// Level is the compression level in [1,22]. Defaults to DefaultLevel.
	Level int

	// ChunkSize is the read granularity in bytes. Defaults to DefaultChunkSize.
	ChunkSize int

	// Threads bounds the codec's internal worker pool.
	// Defaults to runtime.NumCPU().
	Threads int

	// Progress receives structured progress events, synchronously.
	// A nil Progress disables reporting.
	Progress ProgressFunc
}

// Stats describes one completed compression operation.
// It is produced exactly once per invocation; the engine keeps no
// cross-call result state.
type Stats struct {
	OriginalSize   int64
	CompressedSize int64
	Duration       time.Duration
	FilesProcessed int

	// Ratio is OriginalSize/CompressedSize, or 0 when the compressed
	// size is 0.
	Ratio float64
}

// Report describes one extraction or decompression operation.
// A non-empty Failures list is a partial success, distinct from the
// whole-operation error returned alongside it.
type Report struct {
	// Extracted counts members fully written to disk.
	Extracted int

	// Skipped counts members rejected before writing: excluded by
	// pattern, unsafe path, or an unsupported entry type.
	Skipped int

	// Failures lists members that errored mid-extraction, in order.
	Failures []MemberFailure

	// Warnings carries non-fatal conditions such as integrity mismatches.
	Warnings []string
}

func (e *Engine) codec() Codec {
	if e.Codec != nil {
		return e.Codec
	}
	return Zstd{}
}

func (e *Engine) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return DefaultChunkSize
}

func (e *Engine) threads() int {
	if e.Threads > 0 {
		return e.Threads
	}
	return runtime.NumCPU()
}

func (e *Engine) level() (int, error) {
	level := e.Level
	if level == 0 {
		level = DefaultLevel
	}
	if level < MinLevel || level > MaxLevel {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	return level, nil
}

// scaleLevel maps an engine level in [MinLevel,MaxLevel] onto a codec's
// native [min,max] scale, preserving ordering so that a higher engine
// level never selects a weaker native level.
func scaleLevel(level, min, max int) int {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}

	return min + (level-MinLevel)*(max-min)/(MaxLevel-MinLevel)
}

// compressStream reads chunkSize-bounded chunks from input and writes them
// to the compressor sink until the input signals end-of-data, returning
// the number of payload bytes consumed. name and total only feed progress
// events.
func (e *Engine) compressStream(input io.Reader, sink io.Writer, name string, total int64) (int64, error) {
	buf := make([]byte, e.chunkSize())

	var written int64
	for {
		n, err := input.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return written, werr
			}

			written += int64(n)
			e.emit(Event{Stage: StageChunk, Name: name, Bytes: written, Total: total})
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// decompressStream mirrors compressStream on the read side, tolerant of
// truncated trailing chunks: a 0-byte read with io.EOF signals completion.
func (e *Engine) decompressStream(input io.Reader, output io.Writer, name string) (int64, error) {
	buf := make([]byte, e.chunkSize())

	var written int64
	for {
		n, err := input.Read(buf)
		if n > 0 {
			if _, werr := output.Write(buf[:n]); werr != nil {
				return written, werr
			}

			written += int64(n)
			e.emit(Event{Stage: StageChunk, Name: name, Bytes: written})
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// finishStats reads the finalized output size from disk. The compressed
// size is never estimated: callers must have flushed and closed the
// compressor stream first.
func finishStats(output string, originalSize int64, files int, start time.Time) (*Stats, error) {
	fi, err := os.Stat(output)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		OriginalSize:   originalSize,
		CompressedSize: fi.Size(),
		Duration:       time.Since(start),
		FilesProcessed: files,
	}
	if s.CompressedSize > 0 {
		s.Ratio = float64(s.OriginalSize) / float64(s.CompressedSize)
	}

	return s, nil
}

// removePartial deletes a partially-written output before a failure
// propagates, so no corrupt artifact is left in place.
func removePartial(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logWarn("could not remove partial output %s: %v", path, err)
	}
}
