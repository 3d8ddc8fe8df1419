package filespacer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	for _, tc := range []struct {
		algorithm string
		input     string
		want      string
	}{
		{
			algorithm: "sha256",
			input:     "abc",
			want:      "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			algorithm: "", // defaults to sha256
			input:     "abc",
			want:      "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			algorithm: "md5",
			input:     "abc",
			want:      "900150983cd24fb0d6963f7d28e17f72",
		},
		{
			algorithm: "sha1",
			input:     "abc",
			want:      "a9993e364706816aba3e25717850c26c9cd0d89d",
		},
	} {
		tc := tc
		t.Run(tc.algorithm+"/"+tc.input, func(t *testing.T) {
			got, err := Digest(strings.NewReader(tc.input), tc.algorithm, 4)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDigestUnsupportedAlgorithm(t *testing.T) {
	if _, err := Digest(strings.NewReader("x"), "crc32", 0); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.bin.zst")

	if err := writeSidecar(out, "cafebabe", "data.bin"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(out + SidecarSuffix)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "cafebabe  data.bin\n" {
		t.Errorf("unexpected sidecar layout: %q", raw)
	}

	digest, name, ok := readSidecar(out)
	if !ok {
		t.Fatal("sidecar not found")
	}
	if digest != "cafebabe" || name != "data.bin" {
		t.Errorf("got digest=%q name=%q", digest, name)
	}
}

func TestReadSidecarMissing(t *testing.T) {
	if _, _, ok := readSidecar(filepath.Join(t.TempDir(), "nope.zst")); ok {
		t.Fatal("expected ok=false for missing sidecar")
	}
}

func TestDigestFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DigestFile(p, "sha256", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected digest %s", got)
	}
}
