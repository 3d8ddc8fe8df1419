package filespacer

import (
	"io"
	"os"
	"path/filepath"

	"github.com/yeka/zip"
	"golang.org/x/text/encoding/ianaindex"
)

// ExtractOptions configures archive extraction.
type ExtractOptions struct {
	// Exclude skips members whose name contains any of these substrings.
	Exclude []string

	// Password decrypts protected members (ZipCrypto and AES for ZIP,
	// native encryption for 7z and RAR). Ignored for plain archives.
	Password string

	// VerifyIntegrity runs a consistency pass over all ZIP members before
	// extraction and reports corrupted ones as warnings. ZIP only.
	VerifyIntegrity bool

	// StripTopDir removes the leading path segment from every member name,
	// for archives that wrap all their content in a single top folder.
	StripTopDir bool

	// TextEncoding names an IANA character set used to decode member
	// names that are not flagged as UTF-8 (e.g. "IBM437" for archives
	// from legacy DOS/Windows tools). ZIP only.
	TextEncoding string
}

const zipUTF8Flag = 0x800

// ExtractZip extracts a ZIP archive into outputDir. Every member path is
// resolved through the path guard first; members escaping outputDir are
// skipped, never written. Per-member failures (corrupt entry, bad
// password) are collected in the report and do not abort the operation;
// only an unreadable archive returns an error.
func (e *Engine) ExtractZip(archive, outputDir string, opts ExtractOptions) (*Report, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &ExtractionError{Path: archive, Err: err}
	}

	report := &Report{}
	e.emit(Event{Stage: StageStarted, Name: filepath.Base(archive)})

	if opts.VerifyIntegrity {
		e.checkZipMembers(r.File, opts.Password, report)
	}

	for _, f := range r.File {
		name := zipMemberName(f, opts.TextEncoding)
		if opts.StripTopDir {
			// the stripped top directory entry itself ends up empty
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

		if f.IsEncrypted() && opts.Password != "" {
			f.SetPassword(opts.Password)
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
		size := int64(f.UncompressedSize64)
		e.emit(Event{Stage: StageEntry, Name: name, Bytes: size, Total: size})
	}

	if len(report.Failures) > 0 {
		logError("extraction completed with %d errors:\n%s", len(report.Failures), failurePreview(report.Failures, 5))
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(archive)})
	return report, nil
}

// checkZipMembers is the pre-extraction consistency pass: it decodes every
// member to the bit bucket, which exercises the stored checksums. Corrupted
// members are logged and reported as warnings, not raised — the actual
// extraction decides per member.
func (e *Engine) checkZipMembers(files []*zip.File, password string, report *Report) {
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.IsEncrypted() && password != "" {
			f.SetPassword(password)
		}

		rc, err := f.Open()
		if err == nil {
			_, err = io.Copy(io.Discard, rc)
			rc.Close()
		}
		if err != nil {
			msg := "corrupted member detected: " + f.Name
			logWarn("%s: %v", msg, err)
			e.emit(Event{Stage: StageWarning, Name: f.Name, Message: msg})
			report.Warnings = append(report.Warnings, msg)
		}
	}
}

// zipMemberName decodes a member name that is not flagged UTF-8 using the
// configured text encoding. Decoding is best-effort; on any failure the
// raw name is used as-is.
func zipMemberName(f *zip.File, textEncoding string) string {
	if textEncoding == "" || f.Flags&zipUTF8Flag != 0 {
		return f.Name
	}

	enc, err := ianaindex.IANA.Encoding(textEncoding)
	if err != nil || enc == nil {
		return f.Name
	}

	decoded, err := enc.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name
	}

	return decoded
}
