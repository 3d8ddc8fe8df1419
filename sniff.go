package filespacer

import "bytes"

// streamKind classifies the decompressed payload of a compressed input.
type streamKind int

const (
	// singleFile is a plain byte stream to be written to one output file.
	singleFile streamKind = iota

	// packedContainer is a tar-like container of named entries.
	packedContainer
)

const sniffLen = 512 // one container header block

var containerMagic = []byte("ustar")

// classifyStream decides whether the first decompressed bytes of an input
// look like a packed container or a single file. This is a heuristic, not
// a guarantee: a single file whose bytes happen to mimic a container
// header at the probed offsets will be misclassified. The probe order is:
//
//  1. the container magic string anywhere in the first 512 bytes;
//  2. the mode/uid/gid header fields at [100,108), [108,116), [116,124)
//     each non-empty and fully octal after stripping NUL/space padding;
//  3. a NUL-terminated name within the first 100 bytes together with a
//     non-empty mode field.
//
// Anything else is a single file.
func classifyStream(block []byte) streamKind {
	if len(block) > sniffLen {
		block = block[:sniffLen]
	}

	if bytes.Contains(block, containerMagic) {
		return packedContainer
	}

	if len(block) < sniffLen {
		return singleFile
	}

	mode := trimHeaderField(block[100:108])
	uid := trimHeaderField(block[108:116])
	gid := trimHeaderField(block[116:124])

	if isOctalField(mode) && isOctalField(uid) && isOctalField(gid) {
		return packedContainer
	}

	// fallback: a plausible NUL-terminated filename field
	if end := bytes.IndexByte(block[:100], 0); end > 0 && len(mode) > 0 {
		return packedContainer
	}

	return singleFile
}

func trimHeaderField(b []byte) []byte {
	return bytes.Trim(b, "\x00 ")
}

func isOctalField(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	for _, c := range b {
		if c < '0' || c > '7' {
			return false
		}
	}

	return true
}
