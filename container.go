package filespacer

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// containerEntry is one file headed into a folder archive: where it lives
// on disk and the member name it gets inside the container.
type containerEntry struct {
	diskPath    string
	archivePath string
}

// collectEntries walks the folder depth-first and returns the regular
// files to pack, in walk order, along with their total size. Member names
// are rooted at the folder's own base name. Files whose folder-relative
// path contains an exclusion pattern are left out. Duplicate member paths
// are not deduplicated; on unpack the last record wins.
func collectEntries(root string, exclude []string) ([]containerEntry, int64, error) {
	var entries []containerEntry
	var total int64

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		if excluded(rel, exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		entries = append(entries, containerEntry{
			diskPath:    p,
			archivePath: nameInArchive(p, root),
		})
		total += info.Size()

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk directory %s: %w", root, err)
	}

	return entries, total, nil
}

// packEntries writes each entry as a container record into the sink the
// codec is simultaneously compressing. A single entry's I/O failure is
// logged and skipped; packing continues: a folder archive is best-effort,
// not atomic per file. Returns the number of entries fully written and
// their combined payload size. The returned error comes only from
// finalizing the container trailer, which corrupts the whole archive.
func (e *Engine) packEntries(sink io.Writer, entries []containerEntry, total int64) (int, int64, error) {
	tw := tar.NewWriter(sink)

	var processed int
	var written int64
	for _, ent := range entries {
		n, err := e.writeEntry(tw, ent, written, total)
		written += n
		if err != nil {
			logWarn("failed to add %s: %v", ent.diskPath, err)
			e.emit(Event{Stage: StageWarning, Name: ent.archivePath, Message: err.Error()})
			continue
		}

		processed++
		e.emit(Event{Stage: StageEntry, Name: ent.archivePath, Bytes: written, Total: total})
	}

	return processed, written, tw.Close()
}

// writeEntry packs one file. The source is opened and re-stat'ed before
// its header goes out: a file that vanished or changed size since the walk
// must fail or be sized before any bytes are declared to the container,
// otherwise the writer is left mid-record and every following entry fails.
func (e *Engine) writeEntry(tw *tar.Writer, ent containerEntry, done, total int64) (int64, error) {
	f, err := os.Open(ent.diskPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, fmt.Errorf("creating header: %w", err)
	}

	hdr.Name = ent.archivePath
	hdr.Format = tar.FormatPAX

	if err := tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	return e.copyEntryBody(tw, f, hdr.Size, ent.archivePath, done, total)
}

// copyEntryBody streams exactly size bytes of one record body. The header
// has already declared size bytes, so on a short source or a read failure
// the undelivered remainder is zero-filled: the entry itself still fails,
// but the record stays well-formed and the entries after it can be packed.
func (e *Engine) copyEntryBody(tw *tar.Writer, src io.Reader, size int64, name string, done, total int64) (int64, error) {
	buf := make([]byte, e.chunkSize())

	var n int64
	for n < size {
		chunk := int64(len(buf))
		if rem := size - n; rem < chunk {
			chunk = rem
		}

		nr, rerr := src.Read(buf[:chunk])
		if nr > 0 {
			if _, werr := tw.Write(buf[:nr]); werr != nil {
				return n, fmt.Errorf("writing data: %w", werr)
			}

			n += int64(nr)
			e.emit(Event{Stage: StageChunk, Name: name, Bytes: done + n, Total: total})
		}

		if rerr == io.EOF && n < size {
			rerr = io.ErrUnexpectedEOF
		}
		if rerr != nil && rerr != io.EOF {
			padEntry(tw, size-n)
			return n, rerr
		}
	}

	return n, nil
}

// padEntry writes remaining zero bytes into the current record.
func padEntry(tw *tar.Writer, remaining int64) {
	buf := make([]byte, 32*1024)
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}

		wn, err := tw.Write(buf[:n])
		remaining -= int64(wn)
		if err != nil {
			return
		}
	}
}

// unpackContainer reads container records sequentially from the
// decompressed stream until end-of-stream, piping each member through the
// path guard before anything touches the disk. Per-member failures are
// recorded and skipped; only an unreadable container stream aborts.
func (e *Engine) unpackContainer(r io.Reader, root string) (*Report, error) {
	tr := tar.NewReader(r)
	report := &Report{}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("reading container: %w", err)
		}

		if hdr.Typeflag == tar.TypeXGlobalHeader {
			// ignore the pax global header from git-generated tarballs
			continue
		}

		target, err := secureJoin(root, hdr.Name)
		if err != nil {
			logWarn("skipping unsafe path: %s", hdr.Name)
			e.emit(Event{Stage: StageWarning, Name: hdr.Name, Message: "unsafe path skipped"})
			report.Skipped++
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				report.Failures = append(report.Failures, MemberFailure{Name: hdr.Name, Err: err})
				continue
			}
			report.Extracted++
		case tar.TypeReg:
			if err := e.writeMember(tr, target, hdr.Name); err != nil {
				logError("failed to extract %s: %v", hdr.Name, err)
				report.Failures = append(report.Failures, MemberFailure{Name: hdr.Name, Err: err})
				continue
			}

			report.Extracted++
			e.emit(Event{Stage: StageEntry, Name: hdr.Name, Bytes: hdr.Size, Total: hdr.Size})
		default:
			// links, devices and the like are never materialized
			logWarn("skipping unsupported entry type %c: %s", hdr.Typeflag, hdr.Name)
			e.emit(Event{Stage: StageWarning, Name: hdr.Name, Message: "unsupported entry type skipped"})
			report.Skipped++
		}
	}

	return report, nil
}

// writeMember streams one member's content to its guarded target path.
// On error the partial file is removed so a failed member leaves nothing
// behind.
func (e *Engine) writeMember(src io.Reader, target, name string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := e.decompressStream(src, f, name); err != nil {
		f.Close()
		removePartial(target)
		return err
	}
	if err := f.Close(); err != nil {
		removePartial(target)
		return err
	}

	return nil
}
