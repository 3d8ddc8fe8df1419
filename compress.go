package filespacer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// FolderOptions configures CompressFolder.
type FolderOptions struct {
	// Exclude drops files whose folder-relative path contains any of
	// these substrings.
	Exclude []string

	// Parallel enables the codec's internal worker pool. Packing itself
	// stays sequential: container records must not interleave.
	Parallel bool
}

// CompressFile compresses a single file into dest using the engine's
// codec and level. When computeHash is set, a sidecar digest of the
// original content is written to dest plus SidecarSuffix.
// Any partial output is removed before an error is returned.
func (e *Engine) CompressFile(src, dest string, computeHash bool) (*Stats, error) {
	level, err := e.level()
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	fi, err := os.Stat(src)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}
	if fi.IsDir() {
		return nil, &CompressionError{Path: src, Err: fmt.Errorf("%s is a directory, use CompressFolder", src)}
	}

	start := time.Now()
	e.emit(Event{Stage: StageStarted, Name: filepath.Base(src), Total: fi.Size()})

	var inputDigest string
	if computeHash {
		if inputDigest, err = DigestFile(src, "", e.chunkSize()); err != nil {
			return nil, &CompressionError{Path: src, Err: err}
		}
	}

	if err := e.compressFileTo(src, dest, level, fi.Size()); err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	if computeHash {
		if err := writeSidecar(dest, inputDigest, filepath.Base(src)); err != nil {
			removePartial(dest)
			return nil, &CompressionError{Path: src, Err: err}
		}
	}

	stats, err := finishStats(dest, fi.Size(), 1, start)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(src), Bytes: fi.Size(), Total: fi.Size()})
	return stats, nil
}

// compressFileTo runs the streaming loop for one file. The compressed size
// on disk is final only once the codec stream is flushed and closed, so
// all close errors count as failures and trigger cleanup.
func (e *Engine) compressFileTo(src, dest string, level int, total int64) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	cw, err := e.codec().OpenWriter(out, level, e.threads())
	if err != nil {
		out.Close()
		removePartial(dest)
		return err
	}

	if _, err := e.compressStream(in, cw, filepath.Base(src), total); err != nil {
		cw.Close()
		out.Close()
		removePartial(dest)
		return err
	}

	if err := cw.Close(); err != nil {
		out.Close()
		removePartial(dest)
		return err
	}
	if err := out.Close(); err != nil {
		removePartial(dest)
		return err
	}

	return nil
}

// CompressFolder packs the folder into a container and compresses it into
// dest in one streaming pass. Member names are rooted at the folder's base
// name, so decompressing recreates the folder itself. Per-file failures
// are skipped and logged; FilesProcessed counts only fully packed files.
func (e *Engine) CompressFolder(src, dest string, opts FolderOptions) (*Stats, error) {
	level, err := e.level()
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	fi, err := os.Stat(src)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}
	if !fi.IsDir() {
		return nil, &CompressionError{Path: src, Err: fmt.Errorf("%s is not a directory", src)}
	}

	entries, total, err := collectEntries(src, opts.Exclude)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	start := time.Now()
	e.emit(Event{Stage: StageStarted, Name: filepath.Base(src), Total: total})

	threads := 1
	if opts.Parallel {
		threads = e.threads()
	}

	processed, err := e.packFolderTo(dest, entries, total, level, threads)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	stats, err := finishStats(dest, total, processed, start)
	if err != nil {
		return nil, &CompressionError{Path: src, Err: err}
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(src), Bytes: total, Total: total})
	return stats, nil
}

func (e *Engine) packFolderTo(dest string, entries []containerEntry, total int64, level, threads int) (int, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	cw, err := e.codec().OpenWriter(out, level, threads)
	if err != nil {
		out.Close()
		removePartial(dest)
		return 0, err
	}

	processed, _, err := e.packEntries(cw, entries, total)
	if err != nil {
		cw.Close()
		out.Close()
		removePartial(dest)
		return 0, err
	}

	if err := cw.Close(); err != nil {
		out.Close()
		removePartial(dest)
		return 0, err
	}
	if err := out.Close(); err != nil {
		removePartial(dest)
		return 0, err
	}

	return processed, nil
}

// CompressFiles compresses independent whole files concurrently, one
// job per source, each with its own codec context. Outputs land in
// destDir named after the source plus the codec extension. Jobs share
// no mutable state; per-job failures are joined into the returned error
// while successful jobs still contribute to the combined Stats.
func (e *Engine) CompressFiles(sources []string, destDir string, computeHash bool) (*Stats, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &CompressionError{Path: destDir, Err: err}
	}

	start := time.Now()
	sem := make(chan struct{}, e.threads())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		merged *multierror.Error
		sum    Stats
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dest := filepath.Join(destDir, filepath.Base(src)+e.codec().Name())
			stats, err := e.CompressFile(src, dest, computeHash)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merged = multierror.Append(merged, err)
				return
			}

			sum.OriginalSize += stats.OriginalSize
			sum.CompressedSize += stats.CompressedSize
			sum.FilesProcessed += stats.FilesProcessed
		}(src)
	}
	wg.Wait()

	sum.Duration = time.Since(start)
	if sum.CompressedSize > 0 {
		sum.Ratio = float64(sum.OriginalSize) / float64(sum.CompressedSize)
	}

	return &sum, merged.ErrorOrNil()
}
