package filespacer

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

var codecCases = []struct {
	codec    Codec
	filename string
	byStream bool // format has a recognizable stream header
}{
	{codec: Zstd{}, filename: "data.zst", byStream: true},
	{codec: Gz{}, filename: "data.gz", byStream: true},
	{codec: Xz{}, filename: "data.xz", byStream: true},
	{codec: Bz2{}, filename: "data.bz2", byStream: true},
	{codec: Lz4{}, filename: "data.lz4", byStream: true},
	{codec: Brotli{}, filename: "data.br", byStream: false},
}

func TestCodecRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("squeeze me gently, streaming codec. "), 500)

	for _, tc := range codecCases {
		tc := tc
		t.Run(tc.codec.Name(), func(t *testing.T) {
			var buf bytes.Buffer

			w, err := tc.codec.OpenWriter(&buf, 5, 2)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			r, err := tc.codec.OpenReader(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("round trip mismatch: want %d bytes, got %d", len(payload), len(got))
			}
		})
	}
}

func TestIdentifyCodecByStream(t *testing.T) {
	payload := []byte("identify me")

	for _, tc := range codecCases {
		if !tc.byStream {
			continue
		}
		tc := tc
		t.Run(tc.codec.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := tc.codec.OpenWriter(&buf, DefaultLevel, 1)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			// no filename: the stream header must be enough
			got, err := identifyCodec("", buf.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if got.Name() != tc.codec.Name() {
				t.Errorf("want %s, got %s", tc.codec.Name(), got.Name())
			}
		})
	}
}

func TestIdentifyCodecByName(t *testing.T) {
	for _, tc := range codecCases {
		got, err := identifyCodec(tc.filename, []byte("no recognizable header here, only the extension"))
		if err != nil {
			t.Fatalf("%s: %v", tc.filename, err)
		}
		if got.Name() != tc.codec.Name() {
			t.Errorf("%s: want %s, got %s", tc.filename, tc.codec.Name(), got.Name())
		}
	}
}

func TestIdentifyCodecUnknown(t *testing.T) {
	_, err := identifyCodec("file.txt", []byte("plain text, nothing compressed"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("want ErrUnknownFormat, got %v", err)
	}
}

func TestScaleLevel(t *testing.T) {
	for _, tc := range []struct {
		level, min, max, want int
	}{
		{level: 1, min: 1, max: 9, want: 1},
		{level: 22, min: 1, max: 9, want: 9},
		{level: 22, min: 0, max: 11, want: 11},
		{level: 1, min: 0, max: 11, want: 0},
		{level: 50, min: 1, max: 9, want: 9},  // clamped high
		{level: -3, min: 1, max: 9, want: 1},  // clamped low
	} {
		if got := scaleLevel(tc.level, tc.min, tc.max); got != tc.want {
			t.Errorf("scaleLevel(%d, %d, %d): want %d, got %d", tc.level, tc.min, tc.max, tc.want, got)
		}
	}

	// ordering must be preserved across the whole range
	prev := -1
	for level := MinLevel; level <= MaxLevel; level++ {
		got := scaleLevel(level, 1, 9)
		if got < prev {
			t.Fatalf("scaleLevel not monotonic at level %d: %d < %d", level, got, prev)
		}
		prev = got
	}
}
