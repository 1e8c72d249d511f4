package swath

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hydroscan-data/coverage.report/internal/archive"
	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/monitoring"
)

// BatchResult tallies one multi-file load: files converted this pass,
// files restored from a fresh archive, and failures with their errors.
type BatchResult struct {
	Converted int
	Restored  int
	Failed    int
	Errors    map[string]error
	Elapsed   time.Duration
}

// Loader runs the extraction pipeline over survey line files and
// publishes immutable DetectionTable snapshots. Exactly one producer
// mutates the published pointer; any number of readers can take a
// snapshot with Table and analyze it without locking.
type Loader struct {
	cfg        *config.AnalysisConfig
	archiveDir string // empty disables archiving
	compress   bool
	table      atomic.Pointer[DetectionTable]
}

// NewLoader returns a Loader with an empty table. archiveDir of ""
// disables the converted-dataset cache.
func NewLoader(cfg *config.AnalysisConfig, archiveDir string, compress bool) *Loader {
	l := &Loader{cfg: cfg, archiveDir: archiveDir, compress: compress}
	l.table.Store(NewDetectionTable())
	return l
}

// Table returns the latest published snapshot.
func (l *Loader) Table() *DetectionTable {
	return l.table.Load()
}

// Reset discards all loaded records.
func (l *Loader) Reset() {
	l.table.Store(NewDetectionTable())
}

// RemoveFile drops all records from the named source file and publishes
// the reduced table.
func (l *Loader) RemoveFile(name string) {
	l.table.Store(l.table.Load().RemoveFile(name))
}

// LoadFiles extracts detections from each path and appends them to the
// table. Files are committed atomically: a file either completes
// extraction and is appended in full, or contributes nothing. Per-file
// errors never abort the batch; cancellation stops before the next file.
// With an archive directory configured, files whose archive is still
// fresh are restored from it instead of re-extracted, and freshly
// converted files are archived for next time.
func (l *Loader) LoadFiles(ctx context.Context, paths []string, paramsOnly bool) BatchResult {
	start := time.Now()
	res := BatchResult{Errors: make(map[string]error)}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			res.Failed++
			res.Errors[path] = err
			break
		}

		name := filepath.Base(path)
		if l.archiveDir != "" && !paramsOnly {
			archivePath := archive.PathFor(l.archiveDir, path, l.compress)
			if !archive.NeedsConversion(path, archivePath) {
				recs, err := loadArchived(archivePath, name)
				if err == nil {
					l.table.Store(l.table.Load().Append(recs...))
					res.Restored++
					continue
				}
				monitoring.Logf("archive for %s unreadable, re-converting: %v", name, err)
			}
		}

		recs, err := extractFile(path, paramsOnly)
		if err != nil {
			res.Failed++
			res.Errors[path] = err
			monitoring.Logf("skipping %s: %v", name, err)
			continue
		}
		l.table.Store(l.table.Load().Append(recs...))
		res.Converted++

		if l.archiveDir != "" && !paramsOnly {
			archivePath := archive.PathFor(l.archiveDir, path, l.compress)
			if err := archive.Save(archivePath, path, recs, l.compress); err != nil {
				monitoring.Logf("archiving %s failed: %v", name, err)
			}
		}
	}

	res.Elapsed = time.Since(start)
	return res
}

// extractFile runs the full extraction for one line file. The returned
// records are only handed to the table once the whole file parsed.
func extractFile(path string, paramsOnly bool) ([]DetectionRecord, error) {
	src, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	name := filepath.Base(path)
	var recs []DetectionRecord
	for {
		ping, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if paramsOnly {
			recs = append(recs, ExtractParams(ping, src.Format(), name))
		} else {
			recs = append(recs, ExtractDetection(ping, src.Format(), name))
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s: no pings decoded", name)
	}
	return recs, nil
}

// loadArchived restores a file's detection records from its archive,
// accepting legacy blobs without an envelope.
func loadArchived(archivePath, name string) ([]DetectionRecord, error) {
	env, raw, err := archive.Load(archivePath)
	if err != nil {
		return nil, err
	}
	var recs []DetectionRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	if env == nil {
		monitoring.Logf("archive for %s has no metadata envelope, treating as legacy", name)
	}
	for i := range recs {
		recs[i].Archive = true
		if recs[i].Filename == "" {
			recs[i].Filename = name
		}
	}
	return recs, nil
}
