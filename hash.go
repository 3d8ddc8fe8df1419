package filespacer

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// SidecarSuffix is appended to a compressed output's path to name its
// integrity digest file.
const SidecarSuffix = ".sha256"

// newHash returns the named hash.Hash. Supported algorithms:
// sha256 (default), sha512, sha1, md5.
func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "", "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Digest computes the hex digest of r incrementally over chunkSize-bounded
// reads, so memory use is independent of input size.
func Digest(r io.Reader, algorithm string, chunkSize int) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if _, err := io.CopyBuffer(h, r, make([]byte, chunkSize)); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile computes the hex digest of the file's contents.
func DigestFile(path, algorithm string, chunkSize int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Digest(f, algorithm, chunkSize)
}

// writeSidecar stores the digest of the original uncompressed content next
// to the compressed output, in the conventional "<hex>  <name>\n" layout
// accepted by sha256sum-style tools.
func writeSidecar(outputPath, digest, originalName string) error {
	return os.WriteFile(outputPath+SidecarSuffix, []byte(fmt.Sprintf("%s  %s\n", digest, originalName)), 0o644)
}

// readSidecar loads the sidecar digest colocated with compressedPath.
// A missing sidecar is not an error: verification is best-effort, so the
// caller silently skips it when ok is false.
func readSidecar(compressedPath string) (digest, originalName string, ok bool) {
	data, err := os.ReadFile(compressedPath + SidecarSuffix)
	if err != nil {
		if !os.IsNotExist(err) {
			logWarn("could not read hash file for %s: %v", compressedPath, err)
		}
		return "", "", false
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", "", false
	}

	digest = fields[0]
	if len(fields) > 1 {
		originalName = fields[1]
	}

	return digest, originalName, true
}
