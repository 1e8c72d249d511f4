// Package archive persists converted detection datasets as (optionally
// gzipped) JSON blobs next to a metadata envelope, so survey lines only
// need the expensive extraction pass once. Legacy blobs written without an
// envelope still load.
package archive

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Version is written into every envelope; bump when the record layout
// changes incompatibly.
const Version = 2

// gzip level 6 balances conversion time against archive size on large
// survey lines.
const compressionLevel = 6

// Envelope is the metadata stored alongside a converted dataset.
type Envelope struct {
	SourceFile     string    `json:"source_file"`
	SourceMtime    time.Time `json:"source_mtime"`
	ConversionTime time.Time `json:"conversion_time"`
	Version        int       `json:"version"`
	Compressed     bool      `json:"compressed"`
}

type container struct {
	Metadata *Envelope       `json:"metadata"`
	Records  json.RawMessage `json:"records"`
}

// PathFor returns the archive path for a source line file in dir.
func PathFor(dir, src string, compressed bool) string {
	name := filepath.Base(src) + ".det.json"
	if compressed {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

// Save writes payload with a fresh envelope to path, atomically via a
// temp file. src is the originating line file; its mtime is recorded so
// later loads can detect a stale archive.
func Save(path, src string, payload any, compressed bool) error {
	env := &Envelope{
		SourceFile:     filepath.Base(src),
		ConversionTime: time.Now().UTC(),
		Version:        Version,
		Compressed:     compressed,
	}
	if info, err := os.Stat(src); err == nil {
		env.SourceMtime = info.ModTime().UTC()
	}

	records, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	body, err := json.Marshal(container{Metadata: env, Records: records})
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}

	if compressed {
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, compressionLevel)
		if err != nil {
			return err
		}
		if _, err := zw.Write(body); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		body = buf.Bytes()
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Load reads an archive and returns its envelope plus the raw record
// payload for the caller to decode. Legacy blobs written before the
// envelope existed return a nil envelope and the whole body as payload.
func Load(path string) (*Envelope, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return nil, nil, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
		}
		data = buf.Bytes()
	}

	var c container
	if err := json.Unmarshal(data, &c); err == nil && c.Metadata != nil {
		return c.Metadata, c.Records, nil
	}
	// Legacy blob: no envelope, the body is the record payload itself.
	if !json.Valid(data) {
		return nil, nil, fmt.Errorf("archive %s: not valid JSON", filepath.Base(path))
	}
	return nil, json.RawMessage(data), nil
}

// NeedsConversion reports whether src must be (re)converted: the archive
// is missing or older than the source file. A missing source with an
// existing archive does not force a conversion.
func NeedsConversion(src, archivePath string) bool {
	arch, err := os.Stat(archivePath)
	if err != nil {
		return true
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !arch.ModTime().After(srcInfo.ModTime())
}
