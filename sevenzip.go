package filespacer

import (
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// Extract7z extracts a 7-Zip archive into outputDir with the same
// exclusion, path-guard and partial-success semantics as ExtractZip.
// VerifyIntegrity and TextEncoding are ZIP-only and ignored here.
func (e *Engine) Extract7z(archive, outputDir string, opts ExtractOptions) (*Report, error) {
	var r *sevenzip.ReadCloser
	var err error
	if opts.Password != "" {
		r, err = sevenzip.OpenReaderWithPassword(archive, opts.Password)
	} else {
		r, err = sevenzip.OpenReader(archive)
	}
	if err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}

	report := &Report{}
	e.emit(Event{Stage: StageStarted, Name: filepath.Base(archive)})

	for _, f := range r.File {
		name := f.Name
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

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				report.Failures = append(report.Failures, MemberFailure{Name: name, Err: err})
				continue
			}
			report.Extracted++
			continue
		}

		rc, err := f.Open()
		if err != nil {
			logError("failed to extract %s: %v", name, err)
			report.Failures = append(report.Failures, MemberFailure{Name: name, Err: err})
			continue
		}

		err = e.writeMember(rc, target, name)
		rc.Close()
		if err != nil {
			logError("failed to extract %s: %v", name, err)
			report.Failures = append(report.Failures, MemberFailure{Name: name, Err: err})
			continue
		}

		report.Extracted++
		size := f.FileInfo().Size()
		e.emit(Event{Stage: StageEntry, Name: name, Bytes: size, Total: size})
	}

	if len(report.Failures) > 0 {
		logError("extraction completed with %d errors:\n%s", len(report.Failures), failurePreview(report.Failures, 5))
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(archive)})
	return report, nil
}
