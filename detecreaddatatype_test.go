package snptools

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		Head     []byte
		Expected DataType
	}{
		{[]byte{0x1f, 0x8b, 0x08}, DataTypeGzip},
		{[]byte{0x42, 0x5a, 0x68, 0x39}, DataTypeBZip2},
		{[]byte("1 rs1"), DataTypeNoCompression},
		{nil, DataTypeNoCompression},
	} {
		if got := DetectDataType(v.Head); got != v.Expected {
			t.Errorf("DetectDataType(%x) = %v, expected %v", v.Head, got, v.Expected)
		}
	}
}

func gzipped(t *testing.T, s string) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func TestMaybeDecompressReadCloser(t *testing.T) {
	const text = "F1 I1 0 0 1 -9\n"

	for _, input := range [][]byte{[]byte(text), gzipped(t, text), []byte("x")} {
		rc, err := MaybeDecompressReadCloser(io.NopCloser(bytes.NewReader(input)))
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}

		if len(input) > 1 && string(got) != text {
			t.Errorf("Expected %q, got %q", text, got)
		} else if len(input) == 1 && string(got) != "x" {
			t.Errorf("Expected a short stream to pass through, got %q", got)
		}
	}
}

func TestOpenTextAndExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.fam.gz")
	if err := os.WriteFile(path, gzipped(t, "F1 I1\nF2 I2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	rc, err := OpenText(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFAM(rc)
	defer f.Close()

	var iids []string
	for row := f.Read(); row != nil; row = f.Read() {
		iids = append(iids, row.IID)
	}
	if strings.Join(iids, ",") != "I1,I2" {
		t.Fatalf("Unexpected IIDs %v", iids)
	}

	if exists, err := Exists(ctx, path, nil); err != nil || !exists {
		t.Fatalf("Expected %s to exist: %v", path, err)
	}
	if exists, err := Exists(ctx, filepath.Join(dir, "absent.fam"), nil); err != nil || exists {
		t.Fatalf("Expected absent.fam not to exist: %v", err)
	}
}

func TestOpenReaderAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bed")
	if err := os.WriteFile(path, []byte{0x6c, 0x1b, 0x01, 0xff}, 0644); err != nil {
		t.Fatal(err)
	}

	f, size, err := OpenReaderAt(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if size != 4 {
		t.Fatalf("Expected size 4, got %d", size)
	}
	buf := make([]byte, 2)
	if _, err := f.ReadAt(buf, 2); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x01 || buf[1] != 0xff {
		t.Fatalf("Unexpected bytes %x", buf)
	}
}

func TestDetermineDelimiterAmong(t *testing.T) {
	input := "FID\tIID\tbmi\nF1\tI1\t22.5\nF2\tI2\t30.1\nF3\tI3\t27.0\n"
	if got := DetermineDelimiterAmong(strings.NewReader(input), ",;|\t "); got != '\t' {
		t.Fatalf("Expected a tab, got %q", got)
	}
}
