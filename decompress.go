package filespacer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Decompress restores a compressed input produced by CompressFile or
// CompressFolder (or by compatible external tools). The compression layer
// is auto-detected from the stream header or the file extension; the
// decompressed payload is then classified as a packed container or a
// single file by sniffing its first bytes.
//
// For a container, dest is the output root and the archived folder is
// recreated underneath it. For a single file, dest is the output file —
// or, when it names an existing directory, the output is written inside
// it under the source name minus the codec extension.
//
// When verifyHash is set and a sidecar digest exists next to src, the
// single-file output is verified against it; a mismatch is reported as a
// warning, never as an error.
func (e *Engine) Decompress(src, dest string, verifyHash bool) (*Report, error) {
	if _, err := os.Stat(src); err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}

	header, err := readFileHeader(src)
	if err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}

	codec, err := identifyCodec(filepath.Base(src), header)
	if err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}

	e.emit(Event{Stage: StageStarted, Name: filepath.Base(src)})

	// Separate sniffing pass over the first decompressed block only; the
	// codec stream cannot be rewound mid-decompression, so the main pass
	// below re-opens and re-decompresses from the start.
	kind := e.sniffKind(src, codec)

	if kind == packedContainer {
		return e.decompressContainer(src, dest, codec)
	}

	return e.decompressSingle(src, dest, codec, verifyHash)
}

// readFileHeader reads the first block of the raw (still compressed) file
// for codec identification.
func readFileHeader(src string) ([]byte, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readAtMost(f, sniffLen)
}

// sniffKind decompresses at most one header block and classifies it.
// Any error during the probe means the payload cannot be a well-formed
// container, so it falls back to the single-file path.
func (e *Engine) sniffKind(src string, codec Codec) streamKind {
	f, err := os.Open(src)
	if err != nil {
		return singleFile
	}
	defer f.Close()

	cr, err := codec.OpenReader(f)
	if err != nil {
		return singleFile
	}
	defer cr.Close()

	block, err := readAtMost(cr, sniffLen)
	if err != nil {
		return singleFile
	}

	return classifyStream(block)
}

func (e *Engine) decompressContainer(src, dest string, codec Codec) (*Report, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}
	defer f.Close()

	cr, err := codec.OpenReader(f)
	if err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}
	defer cr.Close()

	report, err := e.unpackContainer(cr, dest)
	if err != nil {
		return report, &ExtractionError{Path: src, Err: err}
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(src)})
	return report, nil
}

func (e *Engine) decompressSingle(src, dest string, codec Codec, verifyHash bool) (*Report, error) {
	target := singleFileTarget(src, dest, codec)

	if err := e.decompressFileTo(src, target, codec); err != nil {
		return nil, &ExtractionError{Path: src, Err: err}
	}

	report := &Report{Extracted: 1}
	if verifyHash {
		e.verifySidecar(src, target, report)
	}

	e.emit(Event{Stage: StageCompleted, Name: filepath.Base(target)})
	return report, nil
}

func (e *Engine) decompressFileTo(src, target string, codec Codec) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	cr, err := codec.OpenReader(in)
	if err != nil {
		return err
	}
	defer cr.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := e.decompressStream(cr, out, filepath.Base(target)); err != nil {
		out.Close()
		removePartial(target)
		return err
	}
	if err := out.Close(); err != nil {
		removePartial(target)
		return err
	}

	return nil
}

// verifySidecar checks the decompressed output against the sidecar digest
// colocated with the compressed input. Verification is best-effort and
// non-fatal: a missing sidecar is silently skipped, a mismatch becomes a
// warning. The sidecar itself is never trusted implicitly and never
// deleted.
func (e *Engine) verifySidecar(src, target string, report *Report) {
	expected, _, ok := readSidecar(src)
	if !ok {
		return
	}

	actual, err := DigestFile(target, "", e.chunkSize())
	if err != nil {
		logWarn("could not verify %s: %v", target, err)
		return
	}

	if !strings.EqualFold(actual, expected) {
		msg := fmt.Sprintf("integrity check failed for %s", filepath.Base(target))
		logWarn("%s: have %s, sidecar says %s", target, actual, expected)
		e.emit(Event{Stage: StageWarning, Name: filepath.Base(target), Message: msg})
		report.Warnings = append(report.Warnings, msg)
		return
	}

	e.emit(Event{Stage: StageEntry, Name: filepath.Base(target), Message: "integrity verified"})
}

// singleFileTarget resolves where a single-file payload lands. When dest
// is an existing directory the output keeps the source name, stripped of
// the codec extension it was compressed under.
func singleFileTarget(src, dest string, codec Codec) string {
	fi, err := os.Stat(dest)
	if err != nil || !fi.IsDir() {
		return dest
	}

	name := filepath.Base(src)
	if ext := codec.Name(); strings.HasSuffix(strings.ToLower(name), ext) {
		name = name[:len(name)-len(ext)]
	}

	return filepath.Join(dest, name)
}
