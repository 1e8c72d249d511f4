package swath

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PingSource yields decoded ping records from one survey line file.
type PingSource interface {
	// Format reports the native container format of the line.
	Format() Format
	// Next returns the next ping, or io.EOF when the line is exhausted.
	Next() (*PingRecord, error)
	Close() error
}

// FormatForFile maps a file name to its native container format. Decoded
// line files keep the container extension in the name, e.g.
// "line042.kmall.jsonl.gz", so the format survives the decode step.
func FormatForFile(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".jsonl")
	switch filepath.Ext(name) {
	case ".all":
		return FormatAll, nil
	case ".kmall":
		return FormatKmall, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// OpenSource opens a decoded line file: JSON lines, one ping per line,
// optionally gzip-compressed.
func OpenSource(path string) (PingSource, error) {
	format, err := FormatForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
		}
		r = gz
	}
	sc := bufio.NewScanner(r)
	// Dense pings carry over a thousand beams per line.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlSource{format: format, f: f, gz: gz, sc: sc}, nil
}

type jsonlSource struct {
	format Format
	f      *os.File
	gz     *gzip.Reader
	sc     *bufio.Scanner
	line   int
}

func (s *jsonlSource) Format() Format { return s.format }

func (s *jsonlSource) Next() (*PingRecord, error) {
	for s.sc.Scan() {
		s.line++
		raw := strings.TrimSpace(s.sc.Text())
		if raw == "" {
			continue
		}
		var rec PingRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(s.f.Name()), s.line, err)
		}
		return &rec, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *jsonlSource) Close() error {
	if s.gz != nil {
		s.gz.Close()
	}
	return s.f.Close()
}
