package zip

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"io"
	"strings"
	"testing"
	"time"
)

func TestStreamWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf, flate.BestCompression)
	payload := strings.Repeat("composite ", 500)
	if err := sw.Add("a.jpg", time.Now(), strings.NewReader(payload)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sw.Add("b.jpg", time.Now(), strings.NewReader("b")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sw.Add("", time.Now(), strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := sw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sw.Count() != 2 {
		t.Fatalf("count = %d", sw.Count())
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "a.jpg" {
		t.Fatalf("entries = %v", zr.File)
	}
	if zr.File[0].CompressedSize64 >= zr.File[0].UncompressedSize64 {
		t.Fatal("expected deflate to shrink repetitive payload")
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != payload {
		t.Fatal("payload mismatch")
	}
}
