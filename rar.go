package filespacer

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

// ExtractRar extracts a RAR archive into outputDir with the same
// exclusion, path-guard and partial-success semantics as ExtractZip.
// RAR streams are read sequentially, so a corrupted stream aborts the
// remainder of the archive; members already extracted are kept and
// counted in the returned report.
func (e *Engine) ExtractRar(archive, outputDir string, opts ExtractOptions) (*Report, error) {
	var ropts []rardecode.Option
	if opts.Password != "" {
		ropts = append(ropts, rardecode.Password(opts.Password))
	}

	r, err := rardecode.OpenReader(archive, ropts...)
	if err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}

	report := &Report{}
	e.emit(Event{Stage: StageStarted, Name: filepath.Base(archive)})

	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, &ExtractionError{Path: archive, Err: err}
		}

		name := hdr.Name
		if opts.StripTopDir {
			if name = trimTopDir(name); name == "" {
				report.Skipped++
				continue
			}
		}

		if excluded(name, opts.Exclude) {
			report.Skipped++
			continue
		}

		target, err := secureJoin(outputDir, name)
		if err != nil {
			logWarn("skipping potentially unsafe path: %s", name)
			e.emit(Event{Stage: StageWarning, Name: name, Message: "unsafe path skipped"})
			report.Skipped++
			continue
		}

		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				report.Failures = append(report.Failures, MemberFailure{Name: name, Err: err})
				continue
			}
			report.Extracted++
			continue
		}

		if err := e.writeMember(r, target, name); err != nil {
			logError("failed to extract %s: %v", name, err)
			report.Failures = append(report.Failures, MemberFailure{Name: name, Err: err})
			continue
		}

		report.Extracted++
		e.emit(Event{Stage: StageEntry, Name: name, Bytes: hdr.UnPackedSize, Total: hdr.UnPackedSize})
	}

	if len(report.Failures) > 0 {
		logError("extraction completed with %d errors:\n%s", len(report.Failures), failurePreview(report.Failures, 5))
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(archive)})
	return report, nil
}
