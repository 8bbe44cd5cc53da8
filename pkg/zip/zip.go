package zip

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"io"
	"time"
)

// StreamWriter writes a zip archive entry by entry without buffering the
// whole archive in memory.
type StreamWriter struct {
	zw    *zip.Writer
	count int
}

// NewStreamWriter wraps w. level is a compress/flate level; out of range
// values fall back to flate.BestCompression.
func NewStreamWriter(w io.Writer, level int) *StreamWriter {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = flate.BestCompression
	}
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &StreamWriter{zw: zw}
}

// Add copies r into a new deflated entry called name.
func (s *StreamWriter) Add(name string, modified time.Time, r io.Reader) error {
	if name == "" {
		return errors.New("zip: entry name is required")
	}
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := s.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	s.count++
	return nil
}

// Count reports how many entries were added.
func (s *StreamWriter) Count() int {
	return s.count
}

// Close writes the central directory. The underlying writer is not closed.
func (s *StreamWriter) Close() error {
	return s.zw.Close()
}
